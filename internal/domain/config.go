package domain

type Config struct {
	ListenAddr string `yaml:"listenAddr"`
	JwtSecret  string `yaml:"jwtSecret"`
	JwtIssuer  string `yaml:"jwtIssuer"`
}
