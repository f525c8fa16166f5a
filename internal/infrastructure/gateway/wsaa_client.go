// Package gateway implements the client for the WSAA authentication gateway.
// It submits the signed CMS envelope through the document-style loginCms call
// and extracts the (token, sign) pair or a structured fault from the loosely
// structured XML response.
package gateway

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/beevik/etree"

	"github.com/logigrain/portauth/internal/domain/service"
	"github.com/logigrain/portauth/pkg/constants"
	"github.com/logigrain/portauth/pkg/errors"
	"github.com/logigrain/portauth/pkg/logger"
)

const loginCmsEnvelope = `<soapenv:Envelope xmlns:soapenv="http://schemas.xmlsoap.org/soap/envelope/" xmlns:wsaa="http://wsaa.view.sua.dvadac.desein.afip.gov">
  <soapenv:Header/>
  <soapenv:Body>
    <wsaa:loginCms>
      <wsaa:in0>%s</wsaa:in0>
    </wsaa:loginCms>
  </soapenv:Body>
</soapenv:Envelope>`

// WSAAClient talks to one WSAA endpoint. A single attempt is made per call:
// retry policy, if any, belongs to the caller.
type WSAAClient struct {
	endpoint   string
	httpClient *http.Client
	logger     logger.Logger
}

// NewWSAAClient creates a gateway client with an explicit transport timeout.
func NewWSAAClient(endpoint string, log logger.Logger) *WSAAClient {
	return &WSAAClient{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: constants.GatewayTimeout,
		},
		logger: log,
	}
}

// Endpoint returns the gateway URL this client talks to.
func (c *WSAAClient) Endpoint() string { return c.endpoint }

// LoginCms submits the base64 CMS and extracts the credential pair.
//
// Outcomes, in evaluation order:
//   - transport failure (refused, timeout, DNS)    -> gateway_transport_error
//   - body not well-formed XML                     -> gateway_malformed_response
//   - a credentials element with token and sign    -> success
//   - a faultstring element                        -> gateway_remote_rejected (verbatim)
//   - anything else                                -> gateway_unrecognized_response
func (c *WSAAClient) LoginCms(ctx context.Context, cmsBase64 string) (*service.Credentials, error) {
	body := fmt.Sprintf(loginCmsEnvelope, cmsBase64)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(body))
	if err != nil {
		return nil, errors.ErrGatewayTransport(err)
	}
	req.Header.Set("Content-Type", `text/xml; charset="utf-8"`)
	req.Header.Set("SOAPAction", "")

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error(ctx, "WSAA call failed at transport level", err,
			logger.Fields{"endpoint": c.endpoint})
		return nil, errors.ErrGatewayTransport(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.ErrGatewayTransport(err)
	}

	c.logger.Debug(ctx, "WSAA call completed",
		logger.Fields{
			"endpoint":    c.endpoint,
			"status":      resp.StatusCode,
			"latency_ms":  time.Since(started).Milliseconds(),
			"body_length": len(raw),
		})

	// Fault envelopes arrive with 5xx statuses; they are still XML and carry
	// the rejection detail, so the status code alone decides nothing.
	return c.extract(ctx, raw)
}

func (c *WSAAClient) extract(ctx context.Context, raw []byte) (*service.Credentials, error) {
	outer := etree.NewDocument()
	if err := outer.ReadFromBytes(raw); err != nil {
		c.logger.Warn(ctx, "WSAA response is not well-formed XML",
			logger.Fields{"body_length": len(raw)})
		return nil, errors.ErrGatewayMalformedResponse(string(raw))
	}

	// The login response document travels XML-escaped inside the SOAP return
	// element; unescape and search it first, then fall back to the outer
	// envelope for responses that skip the wrapping.
	docs := []*etree.Document{outer}
	if ret := outer.FindElement("//loginCmsReturn"); ret != nil && strings.TrimSpace(ret.Text()) != "" {
		inner := etree.NewDocument()
		if err := inner.ReadFromString(ret.Text()); err != nil {
			return nil, errors.ErrGatewayMalformedResponse(ret.Text())
		}
		docs = []*etree.Document{inner, outer}
	}

	for _, doc := range docs {
		if cred := doc.FindElement("//credentials"); cred != nil {
			token := cred.SelectElement("token")
			sign := cred.SelectElement("sign")
			if token != nil && sign != nil {
				return &service.Credentials{
					Token: strings.TrimSpace(token.Text()),
					Sign:  strings.TrimSpace(sign.Text()),
				}, nil
			}
		}
	}

	if fault := outer.FindElement("//faultstring"); fault != nil {
		faultString := strings.TrimSpace(fault.Text())
		c.logger.Warn(ctx, "WSAA rejected the login request",
			logger.Fields{"fault_string": faultString})
		return nil, errors.ErrGatewayRemoteRejected(faultString)
	}

	return nil, errors.ErrGatewayUnrecognizedResponse()
}

var _ service.GatewayClient = (*WSAAClient)(nil)
