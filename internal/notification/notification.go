package notification

type Type string

const (
	TypeWizz Type = "wizz"
)

// Push is one message for every device a user registered.
type Push struct {
	UserID string
	Tokens []string
	Type   Type
	Title  string
	Body   string
	Data   map[string]string
}
