package generation

import (
	"context"
	"errors"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/googleapis/gax-go/v2/apierror"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
)

// Gemini sends prompts to Google's Gemini models.
type Gemini struct {
	client *genai.Client
}

// NewGemini creates a Gemini provider authenticated with apiKey.
func NewGemini(ctx context.Context, apiKey string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	return &Gemini{client: client}, nil
}

func (g *Gemini) Close() error {
	return g.client.Close()
}

func (g *Gemini) Send(ctx context.Context, model, prompt string) (string, error) {
	m := g.client.GenerativeModel(model)
	m.ResponseMIMEType = "application/json"

	resp, err := m.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", classifyGemini(err)
	}
	text := responseText(resp)
	if text == "" {
		return "", &Error{Kind: KindOther, Message: "gemini returned no text"}
	}
	return text, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return b.String()
}

func classifyGemini(err error) *Error {
	var blocked *genai.BlockedError
	if errors.As(err, &blocked) {
		return &Error{Kind: KindOther, Message: err.Error(), Err: err}
	}

	var ae *apierror.APIError
	if errors.As(err, &ae) {
		e := classifyStatus(ae.HTTPCode(), nil, err.Error())
		if e.Kind == KindOther {
			e.Kind = kindForCode(ae.GRPCStatus().Code())
		}
		if ri := ae.Details().RetryInfo; ri != nil && e.Retryable() {
			e.RetryAfter = ri.GetRetryDelay().AsDuration()
		}
		e.Err = err
		return e
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		e := classifyStatus(gerr.Code, gerr.Header, err.Error())
		e.Err = err
		return e
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Message: err.Error(), Err: err}
	}
	return &Error{Kind: KindOther, Message: err.Error(), Err: err}
}

func kindForCode(c codes.Code) Kind {
	switch c {
	case codes.ResourceExhausted:
		return KindRateLimited
	case codes.Unavailable, codes.Internal:
		return KindServerError
	case codes.DeadlineExceeded:
		return KindTimeout
	default:
		return KindOther
	}
}

