package constant

const (
	ChatMessageRoleUser      = "user"
	ChatMessageRoleAssistant = "assistant"

	// Brain API paths, relative to the configured base URL.
	BrainDiagnosticStreamPath = "/chat/diagnostic"
	BrainSaveDiagnosticPath   = "/users/diagnostics"
	BrainFeedbackPathFormat   = "/users/diagnostics/%s/feedback"

	DefaultLanguage = "fr"

	// Area sent with a saved diagnostic whose zone is unknown.
	UnspecifiedArea = "non_specifie"

	// FallbackMessage replaces the assistant turn when the exchange fails at
	// the transport level.
	FallbackMessage = "Oops, j'ai eu un souci technique. Tu peux reessayer ?"

	DefaultGreeting = "Salut ! Je suis BigSis, ta grande soeur en esthetique. Dis-moi ce qui t'amene : une zone qui te gene, un traitement qui t'intrigue, ou juste une question. On en parle \U0001F4AC"

	FeedbackRatingUseful    = 5
	FeedbackRatingNotUseful = 1
)

// ZoneGreetings open the conversation when the user arrived with a zone.
var ZoneGreetings = map[string]string{
	"front":             "Le front, bonne zone a explorer ! Tes rides bougent quand tu leves les sourcils (expression) ou elles restent marquees meme au repos (statiques) ?",
	"glabelle":          "La ride du lion, classique ! Elle apparait surtout quand tu fronces les sourcils (expression), ou elle est gravee en permanence (statique) ?",
	"pattes_oie":        "Les pattes d'oie, j'en parle souvent ! Elles apparaissent quand tu souris (expression) ou elles sont la tout le temps (statiques) ?",
	"sillon_nasogenien": "Les sillons nasogeniens, bonne question a creuser ! Ils se marquent surtout quand tu souris (expression) ou ils sont visibles meme au repos (statiques) ?",
}

// ZoneLabels are the human labels of the known zones.
var ZoneLabels = map[string]string{
	"front":             "Front",
	"glabelle":          "Glabelle",
	"pattes_oie":        "Contour des yeux",
	"sillon_nasogenien": "Bouche",
}

var DefaultSuggestions = []string{
	"J'ai des rides sur le front",
	"Le Botox, c'est sur ?",
	"Je veux prevenir le vieillissement",
	"Rides autour des yeux",
}

var ZoneSuggestions = []string{
	"Rides d'expression",
	"Rides statiques",
	"Perte de volume",
	"Prevention",
}

// Greeting picks the opening assistant message for zone.
func Greeting(zone string) string {
	if g, ok := ZoneGreetings[zone]; ok {
		return g
	}
	return DefaultGreeting
}

// Suggestions picks the starter prompts for zone.
func Suggestions(zone string) []string {
	if zone != "" {
		return append([]string(nil), ZoneSuggestions...)
	}
	return append([]string(nil), DefaultSuggestions...)
}
