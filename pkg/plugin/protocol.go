// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

// Package plugin implements the subprocess protocol that drives the
// coordinator: a JSON request on stdin, exactly one JSON response on
// stdout — a message, an error, help text, or an execution plan for
// the outer fan-out engine.
package plugin

import (
	"encoding/json"
	"fmt"

	"github.com/gizzahub/gzh-cli-metagit/pkg/plan"
)

// Request is the envelope received via --meta-plugin-exec.
type Request struct {
	Command  string         `json:"command"`
	Args     []string       `json:"args"`
	Projects []string       `json:"projects"`
	Cwd      string         `json:"cwd"`
	Options  RequestOptions `json:"options"`
}

// RequestOptions carries the outer CLI's global flags.
type RequestOptions struct {
	DryRun     bool `json:"dry_run"`
	Parallel   bool `json:"parallel"`
	Recursive  bool `json:"recursive"`
	Verbose    bool `json:"verbose"`
	JSONOutput bool `json:"json_output"`
	Depth      *int `json:"depth,omitempty"`
	Strict     bool `json:"strict"`
}

// responseKind tags the single variant a Response carries.
type responseKind int

const (
	kindMessage responseKind = iota
	kindError
	kindShowHelp
	kindPlan
)

// Response is the tagged union written to stdout. Construct one with
// Message, Errorf, ShowHelp, or PlanResponse.
type Response struct {
	kind    responseKind
	message string
	help    *string
	plan    *plan.Plan
}

// Message builds a terminal success response.
func Message(text string) Response {
	return Response{kind: kindMessage, message: text}
}

// Errorf builds a terminal error response.
func Errorf(format string, args ...interface{}) Response {
	return Response{kind: kindError, message: fmt.Sprintf(format, args...)}
}

// ShowHelp builds a help response; a nil detail shows generic help.
func ShowHelp(detail *string) Response {
	return Response{kind: kindShowHelp, help: detail}
}

// PlanResponse hands a command plan back to the outer executor.
func PlanResponse(p *plan.Plan) Response {
	return Response{kind: kindPlan, plan: p}
}

// IsError reports whether the response is the error variant.
func (r Response) IsError() bool { return r.kind == kindError }

// MarshalJSON serializes the response as a single-key object.
func (r Response) MarshalJSON() ([]byte, error) {
	switch r.kind {
	case kindError:
		return json.Marshal(map[string]string{"error": r.message})
	case kindShowHelp:
		return json.Marshal(map[string]*string{"showHelp": r.help})
	case kindPlan:
		return json.Marshal(map[string]*plan.Plan{"plan": r.plan})
	default:
		return json.Marshal(map[string]string{"message": r.message})
	}
}

// UnmarshalJSON restores a response from its single-key form.
func (r *Response) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if v, ok := raw["error"]; ok {
		r.kind = kindError
		return json.Unmarshal(v, &r.message)
	}
	if v, ok := raw["showHelp"]; ok {
		r.kind = kindShowHelp
		return json.Unmarshal(v, &r.help)
	}
	if v, ok := raw["plan"]; ok {
		r.kind = kindPlan
		r.plan = &plan.Plan{}
		return json.Unmarshal(v, r.plan)
	}
	if v, ok := raw["message"]; ok {
		r.kind = kindMessage
		return json.Unmarshal(v, &r.message)
	}
	return fmt.Errorf("response has no recognized variant")
}

// Plan returns the plan variant's payload, nil otherwise.
func (r Response) Plan() *plan.Plan {
	if r.kind != kindPlan {
		return nil
	}
	return r.plan
}

// Text returns the message or error text.
func (r Response) Text() string { return r.message }

// Help describes the plugin's usage for the outer CLI's help output.
type Help struct {
	Usage    string `json:"usage"`
	Commands string `json:"commands"`
	Examples string `json:"examples"`
	Note     string `json:"note,omitempty"`
}

// Info is returned by the --meta-plugin-info discovery invocation.
type Info struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Commands    []string `json:"commands"`
	Description string   `json:"description,omitempty"`
	Help        Help     `json:"help"`
}
