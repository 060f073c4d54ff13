package deps

import (
	"time"

	"github.com/verdantlabs/leafsight/internal/analysis"
	"github.com/verdantlabs/leafsight/internal/catalog"
	"github.com/verdantlabs/leafsight/internal/httpserver/mw"
	"github.com/verdantlabs/leafsight/internal/logger"
	"github.com/verdantlabs/leafsight/internal/otp"
	"github.com/verdantlabs/leafsight/internal/ws"
)

type Deps struct {
	Logger       logger.Logger
	StartTime    time.Time
	Version      string
	Commit       string
	BuildDate    string
	GoVersion    string
	TimeNow      func() time.Time // clock used by handlers; nil means time.Now
	Hub          *ws.Hub          // live connection registry
	Orchestrator *analysis.Orchestrator
	Catalog      *catalog.Catalog
	OTP          *otp.Service
	CORSOrigins  []string // origins allowed by the CORS middleware

	CatalogReloadTrigger chan struct{} // manual catalog reload trigger (nil if no catalog file configured)
	OTPRateLimit         mw.RateLimitConfig
}
