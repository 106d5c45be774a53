package library

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const (
	DefaultAccessNode       = "https://rest-mainnet.onflow.org"
	DefaultLibraryAddress   = "0xfed1adffd14ea9d0"
	DefaultFlowTokenAddress = "0x1654653399040a61"

	flowTokenDecimals = 1e8
)

// ScriptError is a Cadence script that executed and failed on the access node.
type ScriptError struct {
	Code    int
	Message string
}

func (e *ScriptError) Error() string {
	return fmt.Sprintf("script failed (%d): %s", e.Code, e.Message)
}

type FlowOptions struct {
	AccessNode       string
	LibraryAddress   string
	FlowTokenAddress string
	Timeout          time.Duration
	Retries          int
	RetryWait        time.Duration
}

// FlowSource reads the Alexandria contract through the Flow Access REST API.
type FlowSource struct {
	client  *resty.Client
	log     *zap.Logger
	scripts *strings.Replacer
	library string
}

func NewFlowSource(opts FlowOptions, log *zap.Logger) *FlowSource {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.AccessNode == "" {
		opts.AccessNode = DefaultAccessNode
	}
	if opts.LibraryAddress == "" {
		opts.LibraryAddress = DefaultLibraryAddress
	}
	if opts.FlowTokenAddress == "" {
		opts.FlowTokenAddress = DefaultFlowTokenAddress
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.RetryWait <= 0 {
		opts.RetryWait = 2 * time.Second
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(opts.AccessNode, "/")).
		SetTimeout(opts.Timeout).
		SetHeader("Accept", "application/json").
		SetLogger(restyLogger{log.Named("http")})
	client.SetRetryCount(opts.Retries).
		SetRetryWaitTime(opts.RetryWait).
		SetRetryAfter(func(client *resty.Client, resp *resty.Response) (time.Duration, error) {
			if resp.StatusCode() == http.StatusTooManyRequests {
				if retryAfter := resp.Header().Get("Retry-After"); retryAfter != "" {
					if seconds, err := time.ParseDuration(retryAfter + "s"); err == nil {
						return seconds, nil
					}
					if t, err := http.ParseTime(retryAfter); err == nil {
						return time.Until(t), nil
					}
				}
				return opts.RetryWait, nil
			}
			return 0, nil
		}).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= 500
		})

	return &FlowSource{
		client: client,
		log:    log.Named("flow"),
		scripts: strings.NewReplacer(
			"0xALEXANDRIA", opts.LibraryAddress,
			"0xFLOWTOKEN", opts.FlowTokenAddress,
		),
		library: opts.LibraryAddress,
	}
}

type scriptRequest struct {
	Script    string   `json:"script"`
	Arguments []string `json:"arguments"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// execute runs a script at the latest sealed block and returns its decoded result.
func (f *FlowSource) execute(ctx context.Context, script string, args ...cadenceValue) (any, error) {
	req := scriptRequest{
		Script:    base64.StdEncoding.EncodeToString([]byte(f.scripts.Replace(script))),
		Arguments: make([]string, 0, len(args)),
	}
	for _, a := range args {
		raw, err := json.Marshal(a)
		if err != nil {
			return nil, fmt.Errorf("encoding argument: %w", err)
		}
		req.Arguments = append(req.Arguments, base64.StdEncoding.EncodeToString(raw))
	}

	resp, err := f.client.R().
		SetContext(ctx).
		SetQueryParam("block_height", "sealed").
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		Post("/v1/scripts")
	if err != nil {
		return nil, fmt.Errorf("executing script: %w", err)
	}
	if resp.IsError() {
		return nil, responseError(resp)
	}

	var encoded string
	if err := json.Unmarshal(resp.Body(), &encoded); err != nil {
		return nil, fmt.Errorf("unexpected script response: %w", err)
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("script result is not base64: %w", err)
	}
	return decodeCadence(data)
}

func responseError(resp *resty.Response) error {
	var e apiError
	if err := json.Unmarshal(resp.Body(), &e); err != nil || e.Message == "" {
		e.Message = strings.TrimSpace(string(resp.Body()))
	}
	if e.Code == 0 {
		e.Code = resp.StatusCode()
	}
	if resp.StatusCode() == http.StatusBadRequest {
		return &ScriptError{Code: e.Code, Message: e.Message}
	}
	return fmt.Errorf("access node returned %d: %s", resp.StatusCode(), e.Message)
}

func (f *FlowSource) stringList(ctx context.Context, script string, args ...cadenceValue) ([]string, error) {
	v, err := f.execute(ctx, script, args...)
	if err != nil {
		return nil, err
	}
	return asStrings(v)
}

func (f *FlowSource) Genres(ctx context.Context) ([]string, error) {
	return f.stringList(ctx, scriptGenres)
}

func (f *FlowSource) BooksByGenre(ctx context.Context, genre string) ([]string, error) {
	return f.stringList(ctx, scriptBooksByGenre, cadenceString(genre))
}

func (f *FlowSource) Authors(ctx context.Context) ([]string, error) {
	return f.stringList(ctx, scriptAuthors)
}

func (f *FlowSource) BooksByAuthor(ctx context.Context, author string) ([]string, error) {
	return f.stringList(ctx, scriptBooksByAuthor, cadenceString(author))
}

func (f *FlowSource) ChapterTitles(ctx context.Context, book string) ([]string, error) {
	v, err := f.execute(ctx, scriptChapterTitles, cadenceString(book))
	var se *ScriptError
	if errors.As(err, &se) {
		return nil, fmt.Errorf("book %q: %w (%s)", book, ErrNotFound, se.Message)
	}
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, fmt.Errorf("book %q: %w", book, ErrNotFound)
	}
	return asStrings(v)
}

// Paragraph reports a failing script (the contract panics on indices past
// the end) as an absent paragraph.
func (f *FlowSource) Paragraph(ctx context.Context, book, chapter string, index int) (string, bool, error) {
	v, err := f.execute(ctx, scriptParagraph, cadenceString(book), cadenceString(chapter), cadenceInt(index))
	var se *ScriptError
	if errors.As(err, &se) {
		f.log.Debug("Paragraph absent", zap.String("chapter", chapter), zap.Int("index", index), zap.String("reason", se.Message))
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	s, _ := v.(string)
	return s, s != "", nil
}

type accountResponse struct {
	Address string `json:"address"`
	Balance string `json:"balance"`
}

// DonationBalance returns the FLOW balance of the library account. It asks
// for the account first and falls back to a FlowToken balance script.
func (f *FlowSource) DonationBalance(ctx context.Context) (float64, error) {
	addr := strings.TrimPrefix(f.library, "0x")
	var acc accountResponse
	resp, err := f.client.R().SetContext(ctx).SetResult(&acc).Get("/v1/accounts/" + addr)
	if err == nil && !resp.IsError() {
		if units, perr := strconv.ParseUint(acc.Balance, 10, 64); perr == nil {
			return float64(units) / flowTokenDecimals, nil
		}
	}
	f.log.Debug("Account query failed, trying balance script", zap.Error(err))

	v, err := f.execute(ctx, scriptLibraryBalance)
	if err != nil {
		return 0, fmt.Errorf("library balance: %w", err)
	}
	s, _ := v.(string)
	balance, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("library balance %q: %w", s, err)
	}
	return balance, nil
}

// restyLogger routes resty's own diagnostics into zap.
type restyLogger struct{ log *zap.Logger }

func (l restyLogger) Errorf(format string, v ...interface{}) { l.log.Sugar().Errorf(format, v...) }
func (l restyLogger) Warnf(format string, v ...interface{})  { l.log.Sugar().Warnf(format, v...) }
func (l restyLogger) Debugf(format string, v ...interface{}) { l.log.Sugar().Debugf(format, v...) }
