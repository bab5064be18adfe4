package gemini

import "net/http"

// Option configures a Gemini chunk source.
type Option func(*Gemini)

// WithTemperature sets the sampling temperature (default 0.1).
func WithTemperature(t float64) Option {
	return func(g *Gemini) { g.temperature = t }
}

// WithTopP sets nucleus sampling top-p (default 0.9).
func WithTopP(p float64) Option {
	return func(g *Gemini) { g.topP = p }
}

// WithSystemPrompt sets the system instruction sent with every round.
func WithSystemPrompt(s string) Option {
	return func(g *Gemini) { g.systemPrompt = s }
}

// WithThinking enables dynamic thinking. Thinking models emit thought
// chunks and attach thoughtSignatures to function calls.
func WithThinking() Option {
	return func(g *Gemini) { g.thinkingEnabled = true }
}

// WithGoogleSearch enables search grounding. Grounded answers carry
// grounding chunks with source attribution.
func WithGoogleSearch() Option {
	return func(g *Gemini) { g.googleSearch = true }
}

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(g *Gemini) { g.httpClient = c }
}

// WithBaseURL overrides the API base URL. Used in tests.
func WithBaseURL(u string) Option {
	return func(g *Gemini) { g.baseURL = u }
}
