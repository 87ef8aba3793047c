package conf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validBootstrap() *Bootstrap {
	b := &Bootstrap{
		Server:  &Server{},
		Data:    &Data{},
		Gateway: &Gateway{StripeKey: "sk_test_xxx"},
		Renewal: &Renewal{},
		Log:     &Log{Level: "info"},
	}
	b.Server.Http.Addr = "0.0.0.0:8000"
	b.Data.Database.Source = "root:root@tcp(127.0.0.1:3306)/membership"
	b.Data.Redis.Addr = "127.0.0.1:6379"
	return b
}

func TestValidate(t *testing.T) {
	assert.NoError(t, validBootstrap().Validate())

	cases := []struct {
		name   string
		mutate func(*Bootstrap)
	}{
		{"missing server", func(b *Bootstrap) { b.Server = nil }},
		{"missing http addr", func(b *Bootstrap) { b.Server.Http.Addr = "" }},
		{"missing data", func(b *Bootstrap) { b.Data = nil }},
		{"missing database source", func(b *Bootstrap) { b.Data.Database.Source = "" }},
		{"missing redis addr", func(b *Bootstrap) { b.Data.Redis.Addr = "" }},
		{"missing gateway", func(b *Bootstrap) { b.Gateway = nil }},
		{"missing stripe key", func(b *Bootstrap) { b.Gateway.StripeKey = "" }},
		{"missing log", func(b *Bootstrap) { b.Log = nil }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := validBootstrap()
			tc.mutate(b)
			assert.Error(t, b.Validate())
		})
	}
}

func TestChargeTimeoutDuration(t *testing.T) {
	var g *Gateway
	assert.Equal(t, 30*time.Second, g.ChargeTimeoutDuration())
	assert.Equal(t, 30*time.Second, (&Gateway{}).ChargeTimeoutDuration())
	assert.Equal(t, 30*time.Second, (&Gateway{ChargeTimeout: "bogus"}).ChargeTimeoutDuration())
	assert.Equal(t, 30*time.Second, (&Gateway{ChargeTimeout: "-5s"}).ChargeTimeoutDuration())
	assert.Equal(t, 45*time.Second, (&Gateway{ChargeTimeout: "45s"}).ChargeTimeoutDuration())
}

func TestRenewalDefaults(t *testing.T) {
	var r *Renewal
	assert.Equal(t, 10*time.Minute, r.ClaimTTLDuration())
	assert.Equal(t, 4, r.Workers())
	assert.Equal(t, 72*time.Hour, r.GracePeriod())

	r = &Renewal{ClaimTTL: "5m", WorkerLimit: 8, GracePeriodDays: 7}
	assert.Equal(t, 5*time.Minute, r.ClaimTTLDuration())
	assert.Equal(t, 8, r.Workers())
	assert.Equal(t, 7*24*time.Hour, r.GracePeriod())

	// Worker limit is capped so one sweep cannot flood the gateway.
	assert.Equal(t, 32, (&Renewal{WorkerLimit: 1000}).Workers())
	assert.Equal(t, 4, (&Renewal{WorkerLimit: -1}).Workers())
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  http:
    addr: 0.0.0.0:8000
    timeout: 5s
data:
  database:
    driver: mysql
    source: root:root@tcp(127.0.0.1:3306)/membership
  redis:
    addr: 127.0.0.1:6379
gateway:
  stripe_key: sk_test_xxx
  currency: PKR
  charge_timeout: 20s
renewal:
  schedule: "0 0 3 * * *"
  worker_limit: 6
log:
  level: info
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	b, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, b.Validate())
	assert.Equal(t, "0.0.0.0:8000", b.Server.Http.Addr)
	assert.Equal(t, "mysql", b.Data.Database.Driver)
	assert.Equal(t, 20*time.Second, b.Gateway.ChargeTimeoutDuration())
	assert.Equal(t, 6, b.Renewal.Workers())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
