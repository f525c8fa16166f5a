package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logigrain/portauth/pkg/constants"
	"github.com/logigrain/portauth/pkg/errors"
	"github.com/logigrain/portauth/pkg/logger"
)

const successEnvelope = `<?xml version="1.0" encoding="UTF-8"?>
<soapenv:Envelope xmlns:soapenv="http://schemas.xmlsoap.org/soap/envelope/">
  <soapenv:Body>
    <loginCmsResponse xmlns="https://wsaahomo.afip.gov.ar/ws/services/LoginCms">
      <loginCmsReturn>&lt;loginTicketResponse version=&quot;1.0&quot;&gt;&lt;header&gt;&lt;source&gt;wsaa&lt;/source&gt;&lt;/header&gt;&lt;credentials&gt;&lt;token&gt;PD94bWwg-token&lt;/token&gt;&lt;sign&gt;base64-sign==&lt;/sign&gt;&lt;/credentials&gt;&lt;/loginTicketResponse&gt;</loginCmsReturn>
    </loginCmsResponse>
  </soapenv:Body>
</soapenv:Envelope>`

const faultEnvelope = `<?xml version="1.0" encoding="UTF-8"?>
<soapenv:Envelope xmlns:soapenv="http://schemas.xmlsoap.org/soap/envelope/">
  <soapenv:Body>
    <soapenv:Fault>
      <faultcode>ns1:cms.cert.untrusted</faultcode>
      <faultstring>Certificado no emitido por AC de confianza</faultstring>
    </soapenv:Fault>
  </soapenv:Body>
</soapenv:Envelope>`

const emptyEnvelope = `<?xml version="1.0" encoding="UTF-8"?>
<soapenv:Envelope xmlns:soapenv="http://schemas.xmlsoap.org/soap/envelope/">
  <soapenv:Body>
    <somethingUnexpected/>
  </soapenv:Body>
</soapenv:Envelope>`

func serveBody(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.Header.Get("Content-Type"), "text/xml")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestWSAAClient_LoginCmsSuccess(t *testing.T) {
	server := serveBody(t, http.StatusOK, successEnvelope)
	client := NewWSAAClient(server.URL, logger.NewNoopLogger())

	creds, err := client.LoginCms(context.Background(), "Q01TLWJhc2U2NA==")
	require.NoError(t, err)
	assert.Equal(t, "PD94bWwg-token", creds.Token)
	assert.Equal(t, "base64-sign==", creds.Sign)
}

func TestWSAAClient_LoginCmsFaultCarriedVerbatim(t *testing.T) {
	// Fault envelopes arrive with a 500 status; the fault string must come
	// through untranslated.
	server := serveBody(t, http.StatusInternalServerError, faultEnvelope)
	client := NewWSAAClient(server.URL, logger.NewNoopLogger())

	_, err := client.LoginCms(context.Background(), "Q01T")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, constants.ErrCodeGatewayRemoteRejected))

	var appErr errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "Certificado no emitido por AC de confianza", appErr.Description())
}

func TestWSAAClient_LoginCmsMalformedBody(t *testing.T) {
	server := serveBody(t, http.StatusOK, "this is not xml <at all")
	client := NewWSAAClient(server.URL, logger.NewNoopLogger())

	_, err := client.LoginCms(context.Background(), "Q01T")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, constants.ErrCodeGatewayMalformedResponse))

	var appErr errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Contains(t, appErr.Metadata()["raw_body"], "not xml")
}

func TestWSAAClient_LoginCmsUnrecognizedResponse(t *testing.T) {
	server := serveBody(t, http.StatusOK, emptyEnvelope)
	client := NewWSAAClient(server.URL, logger.NewNoopLogger())

	_, err := client.LoginCms(context.Background(), "Q01T")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, constants.ErrCodeGatewayUnrecognizedResponse))
}

func TestWSAAClient_LoginCmsTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()
	client := NewWSAAClient(server.URL, logger.NewNoopLogger())

	_, err := client.LoginCms(context.Background(), "Q01T")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, constants.ErrCodeGatewayTransport))
}

func TestWSAAClient_LoginCmsHonorsContext(t *testing.T) {
	server := serveBody(t, http.StatusOK, successEnvelope)
	client := NewWSAAClient(server.URL, logger.NewNoopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.LoginCms(ctx, "Q01T")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, constants.ErrCodeGatewayTransport))
}

func TestWSAAClient_Endpoint(t *testing.T) {
	client := NewWSAAClient(constants.WSAATestURL, logger.NewNoopLogger())
	assert.Equal(t, constants.WSAATestURL, client.Endpoint())
}
