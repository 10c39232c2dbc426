package timesrc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"
)

// ClockPath is the API endpoint serving the server time.
const ClockPath = "/v1/clock"

// ClockResponse is the payload of ClockPath.
type ClockResponse struct {
	Now       time.Time `json:"now"`
	Zone      string    `json:"zone"`
	ClockTime string    `json:"clock_time"`
	Date      string    `json:"date"`
	Weekday   string    `json:"weekday"`
}

// HTTPSource fetches the server time from the API's clock endpoint.
type HTTPSource struct {
	endpoint string
	client   *rest.Client
}

func NewHTTPSource(baseURL string, timeout time.Duration) (*HTTPSource, error) {
	u, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, errors.Wrap(err, "parsing server url")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errors.Errorf("server url %q: scheme must be http or https", baseURL)
	}
	return &HTTPSource{
		endpoint: u.String() + ClockPath,
		client:   &rest.Client{HTTPClient: &http.Client{Timeout: timeout}},
	}, nil
}

func (src *HTTPSource) Now(ctx context.Context) (time.Time, error) {
	req := rest.Request{
		Method:  rest.Get,
		BaseURL: src.endpoint,
		Headers: map[string]string{"Accept": "application/json"},
	}
	hreq, err := rest.BuildRequestObject(req)
	if err != nil {
		return time.Time{}, errors.Wrap(err, "building server time request")
	}
	hres, err := src.client.MakeRequest(hreq.WithContext(ctx))
	if err != nil {
		return time.Time{}, errors.Wrap(err, "requesting server time")
	}
	res, err := rest.BuildResponse(hres)
	if err != nil {
		return time.Time{}, errors.Wrap(err, "reading server time")
	}
	if res.StatusCode != http.StatusOK {
		return time.Time{}, errors.Errorf("requesting server time - status: %d - body: %s", res.StatusCode, res.Body)
	}

	var data ClockResponse
	if err = json.Unmarshal([]byte(res.Body), &data); err != nil {
		return time.Time{}, errors.Wrap(err, "decoding server time")
	}
	if data.Now.IsZero() {
		return time.Time{}, errors.New("server time missing from response")
	}
	return data.Now, nil
}
