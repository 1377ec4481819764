package email

// Config holds mail settings. Postmark tokens may be empty in development,
// in which case DevSender is used instead.
type Config struct {
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	SenderEmail          string `env:"SENDER_EMAIL" envDefault:"no-reply@lessonkit.dev"`
	SupportEmail         string `env:"SUPPORT_EMAIL" envDefault:"suporte@lessonkit.dev"`
	DevOutputDir         string `env:"EMAIL_DEV_DIR" envDefault:"./tmp/emails"`
}
