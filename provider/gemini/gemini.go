// Package gemini adapts the Google Gemini streaming API into the engine's
// classified chunk stream.
package gemini

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/courtsideai/courtside"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Gemini produces classified response chunks for the orchestration engine.
type Gemini struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client

	temperature     float64
	topP            float64
	systemPrompt    string
	thinkingEnabled bool
	googleSearch    bool
}

// New creates a Gemini chunk source with functional options.
func New(apiKey, model string, opts ...Option) *Gemini {
	g := &Gemini{
		apiKey:      apiKey,
		model:       model,
		baseURL:     defaultBaseURL,
		httpClient:  &http.Client{},
		temperature: 0.1,
		topP:        0.9,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Name returns "gemini".
func (g *Gemini) Name() string { return "gemini" }

// Stream returns a StreamFunc bound to the given tool definitions. The
// engine calls it once per round with the current conversation history.
func (g *Gemini) Stream(tools []courtside.ToolDefinition) courtside.StreamFunc {
	return func(ctx context.Context, history []courtside.Turn) (<-chan courtside.Chunk, error) {
		body, err := g.buildBody(history, tools)
		if err != nil {
			return nil, g.wrapErr("build body: " + err.Error())
		}
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, g.wrapErr("marshal body: " + err.Error())
		}

		url := fmt.Sprintf("%s/models/%s:streamGenerateContent?alt=sse&key=%s", g.baseURL, g.model, g.apiKey)
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(string(payload)))
		if err != nil {
			return nil, g.wrapErr("create request: " + err.Error())
		}
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := g.httpClient.Do(httpReq)
		if err != nil {
			return nil, g.wrapErr("stream request failed: " + err.Error())
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			b, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			return nil, &courtside.ErrHTTP{
				Status:     resp.StatusCode,
				Body:       string(b),
				RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			}
		}

		ch := make(chan courtside.Chunk, 16)
		go g.consume(ctx, resp.Body, ch)
		return ch, nil
	}
}

// consume reads the SSE body, reassembles split JSON payloads, and sends
// classified chunks until the stream ends or ctx is cancelled.
func (g *Gemini) consume(ctx context.Context, body io.ReadCloser, ch chan<- courtside.Chunk) {
	defer close(ch)
	defer body.Close()

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)

	var jsonBuf strings.Builder

	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		line := scanner.Text()

		// SSE lines start with "data: ". Anything else continues a JSON
		// payload the server split across lines.
		if !strings.HasPrefix(line, "data: ") {
			if jsonBuf.Len() > 0 {
				jsonBuf.WriteString(line)
				if isCompleteJSON(jsonBuf.String()) {
					if !g.emitChunks(ctx, jsonBuf.String(), ch) {
						return
					}
					jsonBuf.Reset()
				}
			}
			continue
		}

		data := strings.TrimPrefix(line, "data: ")
		if data == "" {
			continue
		}
		if isCompleteJSON(data) {
			if !g.emitChunks(ctx, data, ch) {
				return
			}
		} else {
			jsonBuf.Reset()
			jsonBuf.WriteString(data)
		}
	}

	if jsonBuf.Len() > 0 && isCompleteJSON(jsonBuf.String()) {
		if !g.emitChunks(ctx, jsonBuf.String(), ch) {
			return
		}
	}

	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		g.send(ctx, ch, courtside.Chunk{Err: g.wrapErr("read stream: " + err.Error())})
	}
}

// emitChunks classifies one parsed stream payload into engine chunks.
// A payload that fails to parse is skipped; it never aborts the round.
func (g *Gemini) emitChunks(ctx context.Context, jsonStr string, ch chan<- courtside.Chunk) bool {
	var parsed geminiResponse
	if err := json.Unmarshal([]byte(jsonStr), &parsed); err != nil {
		return true
	}
	if len(parsed.Candidates) == 0 {
		return true
	}
	cand := parsed.Candidates[0]

	var calls []courtside.ToolCall
	for _, part := range cand.Content.Parts {
		switch {
		case part.FunctionCall != nil:
			call := courtside.ToolCall{
				Name: part.FunctionCall.Name,
				Args: part.FunctionCall.Args,
			}
			// Preserve the thoughtSignature verbatim; thinking models need
			// it replayed on the next round.
			if part.ThoughtSignature != "" {
				meta, _ := json.Marshal(map[string]string{
					"thoughtSignature": part.ThoughtSignature,
				})
				call.Provenance = meta
			}
			calls = append(calls, call)
		case part.Text != nil && *part.Text != "":
			kind := courtside.ChunkText
			if part.Thought {
				kind = courtside.ChunkThought
			}
			if !g.send(ctx, ch, courtside.Chunk{Kind: kind, Text: *part.Text}) {
				return false
			}
		}
	}
	if len(calls) > 0 {
		if !g.send(ctx, ch, courtside.Chunk{Kind: courtside.ChunkFunctionCalls, Calls: calls}) {
			return false
		}
	}

	if gm := cand.GroundingMetadata; gm != nil {
		grounding := &courtside.Grounding{Queries: gm.WebSearchQueries}
		for _, gc := range gm.GroundingChunks {
			if gc.Web != nil {
				grounding.Sources = append(grounding.Sources, courtside.GroundingSource{
					URI:    gc.Web.URI,
					Title:  gc.Web.Title,
					Domain: gc.Web.Domain,
				})
			}
		}
		if len(grounding.Sources) > 0 || len(grounding.Queries) > 0 {
			if !g.send(ctx, ch, courtside.Chunk{Kind: courtside.ChunkGrounding, Grounding: grounding}) {
				return false
			}
		}
	}
	return true
}

// send delivers one chunk unless the request was cancelled.
func (g *Gemini) send(ctx context.Context, ch chan<- courtside.Chunk, c courtside.Chunk) bool {
	select {
	case ch <- c:
		return true
	case <-ctx.Done():
		return false
	}
}

func (g *Gemini) wrapErr(msg string) error {
	return &courtside.ErrUpstream{Provider: "gemini", Message: msg}
}

// parseRetryAfter parses a Retry-After header value in delay-seconds form.
// HTTP-date form and garbage yield zero.
func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// ---- Body builder ----

// buildBody constructs the generateContent request from conversation turns
// and tool definitions.
func (g *Gemini) buildBody(history []courtside.Turn, tools []courtside.ToolDefinition) (map[string]any, error) {
	var contents []map[string]any

	for _, turn := range history {
		switch turn.Role {
		case courtside.RoleModel:
			parts := make([]map[string]any, 0, len(turn.Parts))
			for _, p := range turn.Parts {
				switch {
				case p.Call != nil:
					var args any
					if len(p.Call.Args) > 0 {
						if err := json.Unmarshal(p.Call.Args, &args); err != nil {
							args = map[string]any{}
						}
					} else {
						args = map[string]any{}
					}
					part := map[string]any{
						"functionCall": map[string]any{
							"name": p.Call.Name,
							"args": args,
						},
					}
					// Re-attach the opaque provenance exactly as received.
					if len(p.Call.Provenance) > 0 {
						var meta map[string]any
						if err := json.Unmarshal(p.Call.Provenance, &meta); err == nil {
							if sig, ok := meta["thoughtSignature"]; ok {
								part["thoughtSignature"] = sig
							}
						}
					}
					parts = append(parts, part)
				case p.Text != "":
					parts = append(parts, map[string]any{"text": p.Text})
				}
			}
			if len(parts) == 0 {
				parts = append(parts, map[string]any{"text": ""})
			}
			contents = append(contents, map[string]any{"role": "model", "parts": parts})

		case courtside.RoleTool:
			parts := make([]map[string]any, 0, len(turn.Parts))
			for _, p := range turn.Parts {
				if p.Response == nil {
					continue
				}
				parts = append(parts, map[string]any{
					"functionResponse": map[string]any{
						"name":     p.Response.Name,
						"response": resultPayload(p.Response.Result),
					},
				})
			}
			contents = append(contents, map[string]any{"role": "user", "parts": parts})

		default:
			text := ""
			for _, p := range turn.Parts {
				text += p.Text
			}
			contents = append(contents, map[string]any{
				"role":  "user",
				"parts": []map[string]any{{"text": text}},
			})
		}
	}

	body := map[string]any{"contents": contents}

	if g.systemPrompt != "" {
		body["systemInstruction"] = map[string]any{
			"parts": []map[string]any{{"text": g.systemPrompt}},
		}
	}

	var toolEntries []map[string]any
	if len(tools) > 0 {
		declarations := make([]map[string]any, 0, len(tools))
		for _, t := range tools {
			var params any
			if len(t.Parameters) > 0 {
				if err := json.Unmarshal(t.Parameters, &params); err != nil {
					params = map[string]any{}
				}
			} else {
				params = map[string]any{}
			}
			declarations = append(declarations, map[string]any{
				"name":        t.Name,
				"description": t.Description,
				"parameters":  params,
			})
		}
		toolEntries = append(toolEntries, map[string]any{"functionDeclarations": declarations})
	}
	if g.googleSearch {
		toolEntries = append(toolEntries, map[string]any{"googleSearch": map[string]any{}})
	}
	if len(toolEntries) > 0 {
		body["tools"] = toolEntries
	}

	genConfig := map[string]any{
		"temperature": g.temperature,
		"topP":        g.topP,
	}
	if g.thinkingEnabled {
		genConfig["thinkingConfig"] = map[string]any{"thinkingBudget": -1}
	}
	body["generationConfig"] = genConfig

	return body, nil
}

// resultPayload renders a ToolResult as the functionResponse response object.
func resultPayload(r courtside.ToolResult) map[string]any {
	payload := map[string]any{"success": r.Success}
	if r.Data != nil {
		payload["data"] = r.Data
	}
	if r.Error != "" {
		payload["error"] = r.Error
	}
	if r.Cached {
		payload["cached"] = true
	}
	return payload
}

// ---- Response parsing types ----

type geminiResponse struct {
	Candidates []geminiCandidate `json:"candidates"`
}

type geminiCandidate struct {
	Content           geminiContent      `json:"content"`
	GroundingMetadata *groundingMetadata `json:"groundingMetadata,omitempty"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
	Role  string       `json:"role"`
}

type geminiPart struct {
	Text             *string         `json:"text,omitempty"`
	FunctionCall     *geminiFuncCall `json:"functionCall,omitempty"`
	Thought          bool            `json:"thought,omitempty"`
	ThoughtSignature string          `json:"thoughtSignature,omitempty"`
}

type geminiFuncCall struct {
	Name string          `json:"name"`
	Args json.RawMessage `json:"args"`
}

type groundingMetadata struct {
	GroundingChunks  []groundingChunk `json:"groundingChunks,omitempty"`
	WebSearchQueries []string         `json:"webSearchQueries,omitempty"`
}

type groundingChunk struct {
	Web *groundingWeb `json:"web,omitempty"`
}

type groundingWeb struct {
	URI    string `json:"uri"`
	Title  string `json:"title"`
	Domain string `json:"domain"`
}

// isCompleteJSON checks whether a string has balanced braces/brackets,
// indicating it is a complete JSON value.
func isCompleteJSON(s string) bool {
	depth := 0
	inString := false
	escape := false

	for _, ch := range s {
		if escape {
			escape = false
			continue
		}
		if ch == '\\' && inString {
			escape = true
			continue
		}
		if ch == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}
		switch ch {
		case '{', '[':
			depth++
		case '}', ']':
			depth--
		}
	}
	return depth == 0 && !inString
}
