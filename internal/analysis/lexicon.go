package analysis

// baseLexicon holds valence scores on a -4..4 scale for common English words.
var baseLexicon = map[string]float64{
	"abandon": -1.9, "abuse": -3.2, "accept": 1.6, "admire": 2.1, "adore": 2.6,
	"afraid": -2.2, "agree": 1.5, "alarm": -1.4, "alone": -1.0, "anger": -2.7,
	"angry": -2.3, "annoyed": -1.6, "annoying": -1.7, "anxious": -1.0, "appreciate": 1.7,
	"ashamed": -2.1, "attack": -2.1, "awesome": 3.1, "awful": -2.0, "bad": -2.5,
	"beautiful": 2.9, "best": 3.2, "better": 1.9, "bitter": -1.8, "blame": -1.4,
	"bless": 1.8, "blessed": 2.9, "bored": -1.1, "boring": -1.3, "brave": 2.4,
	"brilliant": 2.8, "broken": -2.1, "calm": 1.3, "care": 2.2, "celebrate": 2.7,
	"charming": 2.8, "cheer": 2.3, "cheerful": 2.5, "clever": 2.0, "comfort": 1.5,
	"confident": 2.2, "confused": -1.3, "congrats": 2.4, "congratulations": 2.9, "cool": 1.3,
	"crap": -1.6, "crazy": -1.4, "creative": 1.9, "crisis": -3.1, "cruel": -2.8,
	"cry": -2.1, "cute": 2.0, "damn": -1.7, "danger": -2.4, "dead": -3.3,
	"delight": 2.9, "delighted": 2.8, "depressed": -2.3, "depressing": -1.6, "despair": -2.6,
	"destroy": -2.4, "devastated": -3.1, "died": -2.6, "disappointed": -1.9, "disappointing": -2.2,
	"disaster": -3.1, "disgusting": -2.4, "dislike": -1.6, "doubt": -1.5, "dread": -2.4,
	"dumb": -2.3, "eager": 1.5, "easy": 1.9, "enjoy": 2.2, "enjoyed": 2.3,
	"excellent": 2.7, "excited": 1.4, "exciting": 2.2, "fabulous": 2.4, "fail": -2.5,
	"failed": -2.3, "failure": -2.3, "fair": 1.3, "fake": -2.1, "fantastic": 2.6,
	"fear": -2.2, "fine": 0.8, "fool": -1.9, "free": 2.3, "friendly": 2.2,
	"frustrated": -2.4, "frustrating": -1.9, "fun": 2.3, "funny": 1.9, "glad": 2.0,
	"good": 1.9, "gorgeous": 3.0, "grateful": 2.0, "great": 3.1, "grief": -2.2,
	"gross": -2.1, "guilty": -1.8, "happy": 2.7, "harm": -2.5, "hate": -2.7,
	"hated": -3.2, "heartbroken": -3.3, "help": 1.7, "helpful": 1.8, "hero": 2.6,
	"hope": 1.9, "hopeful": 1.6, "hopeless": -2.0, "horrible": -2.5, "hurt": -2.4,
	"ideal": 2.4, "idiot": -2.3, "ill": -1.8, "important": 0.8, "impressive": 2.3,
	"incredible": 2.0, "inspired": 2.2, "inspiring": 2.4, "interesting": 1.7, "joy": 2.8,
	"kind": 2.4, "lame": -1.8, "laugh": 2.6, "like": 2.0, "lonely": -1.5,
	"lose": -1.3, "loss": -1.3, "lost": -1.3, "love": 3.2, "loved": 2.9,
	"lovely": 2.8, "lucky": 1.8, "mad": -2.2, "mess": -1.5, "miserable": -2.2,
	"miss": -0.6, "motivated": 1.7, "nasty": -2.6, "neat": 2.0, "nice": 1.8,
	"no": -1.2, "ok": 1.2, "okay": 0.9, "outrage": -2.3, "pain": -2.3,
	"panic": -2.3, "peace": 2.5, "perfect": 2.7, "pleasant": 2.3, "pleased": 1.9,
	"poor": -2.1, "positive": 2.6, "pretty": 2.2, "problem": -1.7, "proud": 2.1,
	"rage": -2.6, "relief": 2.1, "ruin": -2.8, "sad": -2.1, "safe": 1.9,
	"scared": -1.9, "shame": -2.1, "shit": -2.6, "sick": -2.3, "smart": 1.7,
	"smile": 1.5, "sorry": -0.3, "strong": 2.3, "stupid": -2.4, "success": 2.7,
	"suck": -1.5, "sucks": -1.5, "super": 2.9, "support": 1.7, "sweet": 2.0,
	"terrible": -2.1, "terrified": -3.0, "thank": 1.5, "thanks": 1.9, "thrilled": 2.5,
	"tired": -1.9, "trouble": -1.7, "trust": 2.3, "ugly": -2.3, "unfair": -2.1,
	"unhappy": -1.8, "upset": -1.6, "useful": 1.9, "useless": -1.8, "violence": -3.1,
	"war": -2.9, "weak": -1.9, "welcome": 2.0, "win": 2.8, "winner": 2.8,
	"wise": 1.8, "wonderful": 2.7, "worried": -1.2, "worry": -1.9, "worse": -2.1,
	"worst": -3.1, "wow": 2.8, "wrong": -2.1, "yay": 2.4, "yes": 1.7,
}

// socialLexicon overrides baseLexicon with social media slang.
var socialLexicon = map[string]float64{
	"lol": 0.3, "haha": 0.3, "omg": 0.2, "wow": 0.2, "cool": 0.3,
	"nice": 0.3, "awesome": 0.8, "amazing": 0.8, "love": 0.8, "heart": 0.6,
	"fire": 0.7, "lit": 0.7, "slay": 0.6, "queen": 0.5, "king": 0.5,
	"goals": 0.4, "mood": 0.2, "vibes": 0.3, "blessed": 0.6, "grateful": 0.7,

	"smh": -0.4, "fml": -0.8, "ugh": -0.5, "sigh": -0.4, "cringe": -0.6,
	"yikes": -0.3, "oof": -0.3, "bruh": -0.2, "wtf": -0.5, "omfg": -0.6,
	"kill": -0.8, "die": -0.8, "hate": -0.8, "terrible": -0.8, "awful": -0.8,
	"horrible": -0.8,
}

var negations = map[string]bool{
	"not": true, "no": true, "never": true, "none": true, "nobody": true,
	"nothing": true, "neither": true, "nor": true, "cannot": true, "without": true,
	"isn't": true, "aren't": true, "wasn't": true, "weren't": true, "don't": true,
	"doesn't": true, "didn't": true, "can't": true, "couldn't": true, "won't": true,
	"wouldn't": true, "shouldn't": true, "ain't": true,
}

var boosters = map[string]float64{
	"absolutely": 0.293, "completely": 0.293, "extremely": 0.293, "incredibly": 0.293,
	"really": 0.293, "so": 0.293, "totally": 0.293, "very": 0.293, "super": 0.293,
	"barely": -0.293, "hardly": -0.293, "kinda": -0.293, "slightly": -0.293, "somewhat": -0.293,
}

// emojiValence groups emoji by the sentiment they usually carry.
var emojiValence = []struct {
	emoji   string
	valence float64
}{
	{"😀😃😄😁😆😅😂🤣😊😇", 0.8},
	{"🙂🙃😉😌😍🥰😘😗😙😚", 0.6},
	{"😋😛😝😜🤪🤨🧐🤓😎", 0.4},
	{"😐😑😶😏😒🙄😬🤥", 0.0},
	{"😔😟😕🙁☹😣😖😫😩", -0.4},
	{"🥺😢😭😤😠😡🤬🤯😳", -0.6},
	{"😱😨😰😥😓🤗🤔🤭🤫", -0.2},
	{"😈👿👹👺💀☠👻👽👾🤖", -0.3},
	{"💪👊👋👌👍👎👏🙌👐🤲", 0.3},
	{"❤💛💚💙💜🖤💔❣💕💞", 0.7},
	{"🔥💯✨🌟💫⭐💥💢💦💨", 0.5},
	{"🎉🎊🎈🎂🎁🎄🎃🎗🎟🎫", 0.6},
}

func lexiconValence(word string) (float64, bool) {
	if value, ok := socialLexicon[word]; ok {
		return value, true
	}
	value, ok := baseLexicon[word]
	return value, ok
}
