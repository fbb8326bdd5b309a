// Package backend talks to the school backend that owns all persisted data:
// GraphQL for queries and most mutations, REST-style routes for calendar and staff creation.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sendgrid/rest"

	"github.com/trezcool/masomo-admin/core"
)

type ctxKey int

const tokenKey ctxKey = iota

// WithToken returns a copy of ctx carrying the bearer token to forward to the backend.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey, token)
}

func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey).(string)
	return token
}

type (
	Client struct {
		endpoint string
		baseURL  string
		http     *rest.Client
		logger   core.Logger
	}

	gqlRequest struct {
		Query     string                 `json:"query"`
		Variables map[string]interface{} `json:"variables,omitempty"`
	}

	gqlResponse struct {
		Data   json.RawMessage `json:"data"`
		Errors []GraphQLError  `json:"errors"`
	}
)

func NewClient(conf *core.Config, logger core.Logger) *Client {
	return &Client{
		endpoint: conf.Backend.GraphQLEndpoint,
		baseURL:  conf.Backend.BaseURL,
		http:     &rest.Client{HTTPClient: &http.Client{Timeout: conf.Backend.Timeout}},
		logger:   logger,
	}
}

func (c *Client) send(ctx context.Context, url string, body interface{}) (*rest.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, errors.Wrap(err, "encoding request")
	}
	headers := map[string]string{
		"Content-Type": "application/json",
		"Accept":       "application/json",
		"X-Request-ID": uuid.New().String(),
	}
	if token := TokenFromContext(ctx); token != "" {
		headers["Authorization"] = "Bearer " + token
	}
	req, err := rest.BuildRequestObject(rest.Request{
		Method:  rest.Post,
		BaseURL: url,
		Headers: headers,
		Body:    payload,
	})
	if err != nil {
		return nil, errors.Wrap(err, "building request")
	}
	httpRes, err := c.http.MakeRequest(req.WithContext(ctx))
	if err != nil {
		return nil, errors.Wrapf(err, "calling backend %s", url)
	}
	res, err := rest.BuildResponse(httpRes)
	if err != nil {
		return nil, errors.Wrap(err, "reading backend response")
	}
	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		c.logger.Debug("backend error response", map[string]interface{}{
			"url": url, "status": res.StatusCode, "requestId": headers["X-Request-ID"],
		})
		return nil, newHTTPError(res.StatusCode, []byte(res.Body))
	}
	return res, nil
}

// Query runs a GraphQL operation and decodes its data into out.
// A response carrying errors is a failure even with a 200 status.
func (c *Client) Query(ctx context.Context, query string, vars map[string]interface{}, out interface{}) error {
	res, err := c.send(ctx, c.endpoint, gqlRequest{Query: query, Variables: vars})
	if err != nil {
		return err
	}
	var envelope gqlResponse
	if err := json.Unmarshal([]byte(res.Body), &envelope); err != nil {
		return errors.Wrap(err, "decoding graphql response")
	}
	if len(envelope.Errors) > 0 {
		gqlErr := envelope.Errors[0]
		gqlErr.Count = len(envelope.Errors)
		return &gqlErr
	}
	if out == nil || len(envelope.Data) == 0 {
		return nil
	}
	return errors.Wrap(json.Unmarshal(envelope.Data, out), "decoding graphql data")
}

// Post calls a REST-style route and decodes the created entity into out.
// The entity may come bare or wrapped in a {"data": ...} envelope.
func (c *Client) Post(ctx context.Context, route string, body, out interface{}) error {
	res, err := c.send(ctx, c.baseURL+route, body)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	raw := bytes.TrimSpace([]byte(res.Body))
	if len(raw) == 0 {
		return nil
	}

	var envelope struct {
		Success *bool           `json:"success"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil {
		if envelope.Success != nil && !*envelope.Success {
			return &HTTPError{StatusCode: res.StatusCode, Message: envelope.Message}
		}
		if len(envelope.Data) > 0 && string(envelope.Data) != "null" {
			raw = envelope.Data
		}
	}
	return errors.Wrap(json.Unmarshal(raw, out), "decoding backend response")
}
