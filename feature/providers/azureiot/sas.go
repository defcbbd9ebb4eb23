package azureiot

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"fleet-sync/core/provider"
)

// ConnectionString is a parsed IoT Hub service connection string.
type ConnectionString struct {
	HostName            string
	SharedAccessKeyName string
	SharedAccessKey     []byte
}

// ParseConnectionString reads "HostName=...;SharedAccessKeyName=...;SharedAccessKey=...".
func ParseConnectionString(raw string) (ConnectionString, error) {
	var cs ConnectionString
	var key string
	for _, part := range strings.Split(raw, ";") {
		name, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch name {
		case "HostName":
			cs.HostName = value
		case "SharedAccessKeyName":
			cs.SharedAccessKeyName = value
		case "SharedAccessKey":
			key = value
		}
	}
	if cs.HostName == "" || cs.SharedAccessKeyName == "" || key == "" {
		return cs, provider.Configuration("azure_iot: connection string needs HostName, SharedAccessKeyName and SharedAccessKey")
	}
	decoded, err := base64.StdEncoding.DecodeString(key)
	if err != nil {
		return cs, provider.Configuration("azure_iot: SharedAccessKey is not base64: %v", err)
	}
	cs.SharedAccessKey = decoded
	return cs, nil
}

// Endpoint returns the hub REST root.
func (cs ConnectionString) Endpoint() string {
	return "https://" + cs.HostName
}

// Token returns a shared access signature for the hub valid until expiry.
func (cs ConnectionString) Token(expiry time.Time) string {
	resource := url.QueryEscape(strings.ToLower(cs.HostName))
	se := strconv.FormatInt(expiry.Unix(), 10)

	mac := hmac.New(sha256.New, cs.SharedAccessKey)
	mac.Write([]byte(resource + "\n" + se))
	sig := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	return fmt.Sprintf("SharedAccessSignature sr=%s&sig=%s&se=%s&skn=%s",
		resource, url.QueryEscape(sig), se, url.QueryEscape(cs.SharedAccessKeyName))
}
