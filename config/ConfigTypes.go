package config

type config struct {
	Database DatabaseConfig
	Telegram TelegramConfig
	Runner   RunnerConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

type TelegramConfig struct {
	Token  string
	ChatID int64
}

type RunnerConfig struct {
	OutDir      string
	Workers     int
	MetricsAddr string
}
