package cmd

import "github.com/reputebot/reputebot/internal/config"

func checkCredentials() error {
	creds, err := config.LoadCredentials(envFiles...)
	if err != nil {
		return err
	}
	return creds.Validate()
}
