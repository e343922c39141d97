package mcp

import (
	"fmt"
	"math"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mbocsi/kkstudio-mcp/proto"
)

// args reads a tool call's arguments through the request's typed
// accessors. Missing and null arguments are treated the same way.
type args struct {
	req mcp.CallToolRequest
	raw map[string]any
}

func argsOf(request mcp.CallToolRequest) args {
	return args{req: request, raw: request.GetArguments()}
}

func (a args) has(name string) bool {
	v, ok := a.raw[name]
	return ok && v != nil
}

// integer reads a required whole number. RequireInt truncates 1.5 to 1, so
// the value is read as a float and checked here.
func (a args) integer(name string) (int, error) {
	if !a.has(name) {
		return 0, fmt.Errorf("%s is required", name)
	}
	f, err := a.req.RequireFloat(name)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || math.IsInf(f, 0) || math.Abs(f) > math.MaxInt32 {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return int(f), nil
}

func (a args) optInt(name string) (*int, error) {
	if !a.has(name) {
		return nil, nil
	}
	n, err := a.integer(name)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (a args) optFloat(name string) (*float64, error) {
	if !a.has(name) {
		return nil, nil
	}
	f, err := a.req.RequireFloat(name)
	if err != nil {
		return nil, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("%s must be a finite number", name)
	}
	return &f, nil
}

func (a args) boolean(name string) (bool, error) {
	if !a.has(name) {
		return false, fmt.Errorf("%s is required", name)
	}
	return a.req.RequireBool(name)
}

func (a args) optBool(name string) (*bool, error) {
	if !a.has(name) {
		return nil, nil
	}
	b, err := a.req.RequireBool(name)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (a args) str(name string) (string, error) {
	if !a.has(name) {
		return "", fmt.Errorf("%s is required", name)
	}
	s, err := a.req.RequireString(name)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("%s must not be empty", name)
	}
	return s, nil
}

// optStr treats an empty string like a missing argument.
func (a args) optStr(name string) (*string, error) {
	if s, ok := a.raw[name].(string); !a.has(name) || ok && s == "" {
		return nil, nil
	}
	s, err := a.str(name)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// vector reads an optional array of exactly n numbers.
func (a args) vector(name string, n int) ([]float64, error) {
	if !a.has(name) {
		return nil, nil
	}
	v, err := a.req.RequireFloatSlice(name)
	if err != nil {
		return nil, err
	}
	if err := proto.ValidateVector(name, v, n); err != nil {
		return nil, err
	}
	return v, nil
}
