package conf

import (
	"fmt"
	"time"
)

type Bootstrap struct {
	Server  *Server  `yaml:"server" json:"server"`
	Data    *Data    `yaml:"data" json:"data"`
	Gateway *Gateway `yaml:"gateway" json:"gateway"`
	Renewal *Renewal `yaml:"renewal" json:"renewal"`
	Log     *Log     `yaml:"log" json:"log"`
}

type Server struct {
	Http struct {
		Addr    string `yaml:"addr" json:"addr"`
		Timeout string `yaml:"timeout" json:"timeout"`
	} `yaml:"http" json:"http"`
}

type Data struct {
	Database struct {
		Driver          string `yaml:"driver" json:"driver"`
		Source          string `yaml:"source" json:"source"`
		MaxIdleConns    int    `yaml:"max_idle_conns" json:"max_idle_conns"`
		MaxOpenConns    int    `yaml:"max_open_conns" json:"max_open_conns"`
		ConnMaxLifetime string `yaml:"conn_max_lifetime" json:"conn_max_lifetime"`
	} `yaml:"database" json:"database"`
	Redis struct {
		Addr         string `yaml:"addr" json:"addr"`
		Password     string `yaml:"password" json:"password"`
		Db           int32  `yaml:"db" json:"db"`
		ReadTimeout  string `yaml:"read_timeout" json:"read_timeout"`
		WriteTimeout string `yaml:"write_timeout" json:"write_timeout"`
		DialTimeout  string `yaml:"dial_timeout" json:"dial_timeout"`
		PoolSize     int32  `yaml:"pool_size" json:"pool_size"`
		MinIdleConns int32  `yaml:"min_idle_conns" json:"min_idle_conns"`
	} `yaml:"redis" json:"redis"`
}

// Gateway configures the card tokenization/charge provider.
type Gateway struct {
	StripeKey     string `yaml:"stripe_key" json:"stripe_key"`
	Currency      string `yaml:"currency" json:"currency"`
	ChargeTimeout string `yaml:"charge_timeout" json:"charge_timeout"`
}

// Renewal configures the batch renewal sweep.
type Renewal struct {
	Schedule            string `yaml:"schedule" json:"schedule"`
	ExpiryAuditSchedule string `yaml:"expiry_audit_schedule" json:"expiry_audit_schedule"`
	WorkerLimit         int    `yaml:"worker_limit" json:"worker_limit"`
	ClaimTTL            string `yaml:"claim_ttl" json:"claim_ttl"`
	GracePeriodDays     int    `yaml:"grace_period_days" json:"grace_period_days"`
}

type Log struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// ChargeTimeoutDuration returns the per-charge call timeout. A charge call
// that has not answered within this window is treated as a failed charge.
func (g *Gateway) ChargeTimeoutDuration() time.Duration {
	if g == nil {
		return 30 * time.Second
	}
	return parseDuration(g.ChargeTimeout, 30*time.Second)
}

// ClaimTTLDuration returns how long a per-subscription renewal claim is held
// before it lapses on its own.
func (r *Renewal) ClaimTTLDuration() time.Duration {
	if r == nil {
		return 10 * time.Minute
	}
	return parseDuration(r.ClaimTTL, 10*time.Minute)
}

// Workers returns the renewal sweep concurrency, bounded so the gateway is
// never hammered by a wide fan-out.
func (r *Renewal) Workers() int {
	if r == nil || r.WorkerLimit < 1 {
		return 4
	}
	if r.WorkerLimit > 32 {
		return 32
	}
	return r.WorkerLimit
}

// GracePeriod returns how long past its renewal date a token-less
// subscription may linger before the expiry audit closes it.
func (r *Renewal) GracePeriod() time.Duration {
	days := 3
	if r != nil && r.GracePeriodDays > 0 {
		days = r.GracePeriodDays
	}
	return time.Duration(days) * 24 * time.Hour
}

// Validate validates the configuration.
func (b *Bootstrap) Validate() error {
	if b.Server == nil {
		return fmt.Errorf("server configuration is required")
	}
	if b.Server.Http.Addr == "" {
		return fmt.Errorf("server.http.addr is required")
	}
	if b.Data == nil {
		return fmt.Errorf("data configuration is required")
	}
	if b.Data.Database.Source == "" {
		return fmt.Errorf("data.database.source is required")
	}
	if b.Data.Redis.Addr == "" {
		return fmt.Errorf("data.redis.addr is required")
	}
	if b.Gateway == nil || b.Gateway.StripeKey == "" {
		return fmt.Errorf("gateway.stripe_key is required")
	}
	if b.Log == nil {
		return fmt.Errorf("log configuration is required")
	}
	return nil
}

func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
