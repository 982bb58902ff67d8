package config

// HTTPConfig configures the battery API server.
type HTTPConfig struct {
	// Address to listen on. "-" disables the server.
	Address string `json:"address"`
	// Token, when set, is required as "Bearer <token>" on mutating requests.
	Token string `json:"token"`
}

func (c *HTTPConfig) SetDefaults() {
	if c.Address == "" {
		c.Address = ":8080"
	}
}

// Enabled reports whether the API server should run.
func (c HTTPConfig) Enabled() bool { return c.Address != "-" }
