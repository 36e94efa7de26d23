package isostream

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
	json "github.com/goccy/go-json"

	"github.com/isostream/isostream-go/internal/spec"
)

// do issues one HTTP round trip for an operation with the built query
// parameters plus the injected API key, and decodes the JSON record list.
func (c *Client) do(ctx context.Context, op Operation, params map[string]string) ([]Record, error) {
	c.log.Debug("api request", "method", op.Method, "path", op.Path, "params", params)

	req := c.rest.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetQueryParam(spec.APIKeyParam, c.apiKey)

	var (
		resp *resty.Response
		err  error
	)
	switch op.Method {
	case http.MethodGet:
		resp, err = req.Get(op.Path)
	case http.MethodPost:
		resp, err = req.Post(op.Path)
	default:
		resp, err = req.Execute(op.Method, op.Path)
	}
	if err != nil {
		return nil, fmt.Errorf("isostream: %s %s: %w", op.Method, op.Path, err)
	}

	if resp.IsError() {
		return nil, &APIError{
			StatusCode: resp.StatusCode(),
			Message:    translateErrorBody(resp.Body()),
		}
	}

	body := resp.Body()
	if len(body) == 0 {
		return nil, nil
	}
	var records []Record
	if uerr := json.Unmarshal(body, &records); uerr != nil {
		return nil, fmt.Errorf("isostream: decode %s response: %w", op.Path, uerr)
	}
	return records, nil
}

// validationBody is the structured error shape the service produces for
// rejected query parameters.
type validationBody struct {
	Detail []struct {
		Loc []any  `json:"loc"`
		Msg string `json:"msg"`
	} `json:"detail"`
}

// translateErrorBody turns a validation body into "parameter '<field>':
// <message>" entries joined by commas, falling back to the raw text when
// the body has another shape.
func translateErrorBody(body []byte) string {
	var vb validationBody
	if err := json.Unmarshal(body, &vb); err == nil && len(vb.Detail) > 0 {
		parts := make([]string, 0, len(vb.Detail))
		for _, d := range vb.Detail {
			field := ""
			if len(d.Loc) > 1 {
				field = fmt.Sprint(d.Loc[1])
			} else if len(d.Loc) == 1 {
				field = fmt.Sprint(d.Loc[0])
			}
			parts = append(parts, fmt.Sprintf("parameter '%s': %s", field, d.Msg))
		}
		return strings.Join(parts, ",")
	}
	return strings.TrimSpace(string(body))
}
