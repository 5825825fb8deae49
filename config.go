package authflow

// RoutesConfig maps screen destinations to route keys.
type RoutesConfig struct {
	Account        RouteKey `json:"account" mapstructure:"account"`
	SignUpStep2    RouteKey `json:"sign_up_step2" mapstructure:"sign_up_step2"`
	ForgotPassword RouteKey `json:"forgot_password" mapstructure:"forgot_password"`
}

// MessagesConfig holds the notification texts emitted by the screens.
type MessagesConfig struct {
	FailureTitle        string `json:"failure_title" mapstructure:"failure_title"`
	SignUpFailureTitle  string `json:"sign_up_failure_title" mapstructure:"sign_up_failure_title"`
	ResetSuccessTitle   string `json:"reset_success_title" mapstructure:"reset_success_title"`
	ResetSuccessMessage string `json:"reset_success_message" mapstructure:"reset_success_message"`
	ProviderFailure     string `json:"provider_failure" mapstructure:"provider_failure"`
}

// Config holds screen options
type Config struct {
	Routes          RoutesConfig   `json:"routes" mapstructure:"routes"`
	Messages        MessagesConfig `json:"messages" mapstructure:"messages"`
	MinimumAge      int            `json:"minimum_age" mapstructure:"minimum_age"`
	ProviderPurpose string         `json:"provider_purpose" mapstructure:"provider_purpose"`
}

// DefaultConfig returns the stock routes and notification texts.
func DefaultConfig() Config {
	return Config{
		Routes: RoutesConfig{
			Account:        RouteAccount,
			SignUpStep2:    RouteSignUpStep2,
			ForgotPassword: RouteForgotPassword,
		},
		Messages: MessagesConfig{
			FailureTitle:        "Try again!",
			SignUpFailureTitle:  "",
			ResetSuccessTitle:   "Forgot email",
			ResetSuccessMessage: "Reset link has been sent",
			ProviderFailure:     "oups",
		},
		MinimumAge:      DefaultMinimumAge,
		ProviderPurpose: "register",
	}
}

// withDefaults fills zero route keys and the minimum age. Message texts are
// kept as given since an empty title is meaningful.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.Routes.Account == "" {
		c.Routes.Account = def.Routes.Account
	}
	if c.Routes.SignUpStep2 == "" {
		c.Routes.SignUpStep2 = def.Routes.SignUpStep2
	}
	if c.Routes.ForgotPassword == "" {
		c.Routes.ForgotPassword = def.Routes.ForgotPassword
	}
	if c.MinimumAge <= 0 {
		c.MinimumAge = def.MinimumAge
	}
	if c.ProviderPurpose == "" {
		c.ProviderPurpose = def.ProviderPurpose
	}
	return c
}
