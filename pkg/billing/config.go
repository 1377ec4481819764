package billing

type StripeConfig struct {
	SecretKey     string `env:"STRIPE_SECRET_KEY"`
	WebhookSecret string `env:"STRIPE_WEBHOOK_SECRET"`
}

type PaddleConfig struct {
	APIKey        string `env:"PADDLE_API_KEY"`
	WebhookSecret string `env:"PADDLE_WEBHOOK_SECRET"`
	Environment   string `env:"PADDLE_ENVIRONMENT" envDefault:"sandbox"`
	PricePersonal string `env:"PADDLE_PRICE_PERSONAL"`
	PriceSchool   string `env:"PADDLE_PRICE_SCHOOL"`
}

type SimulatorConfig struct {
	PixKey       string `env:"PIX_KEY" envDefault:"pix@lessonkit.dev"`
	MerchantName string `env:"PIX_MERCHANT_NAME" envDefault:"LESSONKIT"`
	MerchantCity string `env:"PIX_MERCHANT_CITY" envDefault:"SAO PAULO"`
	BaseURL      string `env:"APP_BASE_URL" envDefault:"http://localhost:8080"`
}
