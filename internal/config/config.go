// Package config loads capture settings from the environment.
//
// Every setting is read from an AUTOCAPTURE_ prefixed variable, optionally
// seeded from a .env file, and validated with struct tags before use.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/ironsheep/doc-autocapture/internal/capture"
	"github.com/ironsheep/doc-autocapture/internal/detection"
	"github.com/ironsheep/doc-autocapture/internal/guidance"
	"github.com/ironsheep/doc-autocapture/internal/imaging"
	"github.com/ironsheep/doc-autocapture/internal/logging"
	"github.com/ironsheep/doc-autocapture/internal/validation"
)

// Prefix is prepended to every variable name.
const Prefix = "AUTOCAPTURE_"

// Config holds every tunable of the capture core and its outer surface.
type Config struct {
	Guidance guidance.Config

	Strategy   string   `validate:"oneof=area edge"`
	Features   []string `validate:"min=1,dive,oneof=contour position glare"`
	AreaPolicy string   `validate:"oneof=fixed frame"`
	MinArea    float64  `validate:"gte=0"`
	Epsilon    float64  `validate:"gt=0,lt=1"`
	Backend    string   `validate:"required"`

	DetectInterval       time.Duration `validate:"gt=0"`
	ValidateInterval     time.Duration `validate:"gt=0"`
	HoldTick             time.Duration `validate:"gt=0"`
	Cooldown             time.Duration `validate:"gte=0"`
	NoDetectionThreshold int           `validate:"gte=0"`
	SnapshotWidth        int           `validate:"gte=0"`

	GlareBrightness int     `validate:"gte=0,lte=255"`
	GlareMinArea    float64 `validate:"gte=0"`

	OverlayGuidanceColor string `validate:"hexcolor"`
	OverlayDetectedColor string `validate:"hexcolor"`
	OverlayGlareColor    string `validate:"hexcolor"`
	OverlayThickness     int    `validate:"gte=1,lte=32"`

	LogLevel string `validate:"oneof=trace debug info warn warning error fatal panic"`
	LogFile  string
}

// Default returns the initial settings of the capture screen.
func Default() *Config {
	style := imaging.DefaultOverlayStyle()
	glare := detection.DefaultGlareDetector()
	return &Config{
		Guidance:             guidance.DefaultConfig(),
		Strategy:             validation.StrategyArea.String(),
		Features:             []string{validation.KindContour.ID(), validation.KindPosition.ID()},
		AreaPolicy:           detection.AreaFixed.String(),
		MinArea:              detection.DefaultMinArea,
		Epsilon:              detection.DefaultEpsilonPercent,
		Backend:              detection.BackendNative,
		DetectInterval:       capture.DefaultDetectInterval,
		ValidateInterval:     capture.DefaultValidateInterval,
		HoldTick:             capture.DefaultHoldTick,
		Cooldown:             capture.DefaultCooldown,
		NoDetectionThreshold: capture.DefaultNoDetectionThreshold,
		SnapshotWidth:        capture.DefaultSnapshotWidth,
		GlareBrightness:      int(glare.Brightness),
		GlareMinArea:         glare.MinArea,
		OverlayGuidanceColor: style.GuidanceColor,
		OverlayDetectedColor: style.DetectedColor,
		OverlayGlareColor:    style.GlareColor,
		OverlayThickness:     style.Thickness,
		LogLevel:             "info",
	}
}

// Load reads the given .env files, if present, and then the process
// environment. Variables already set in the environment win over .env.
func Load(envFiles ...string) (*Config, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from lookup, which is usually os.LookupEnv.
// Unset variables keep their defaults.
func FromLookup(lookup func(string) (string, bool)) (*Config, error) {
	c := Default()
	r := reader{lookup: lookup}

	r.float("FRAME_WIDTH_PCT", &c.Guidance.FrameWidthPct)
	r.float("FRAME_HEIGHT_PCT", &c.Guidance.FrameHeightPct)
	r.float("SIDE_MARGIN_PCT", &c.Guidance.SideMarginPct)
	r.duration("HOLDING_TIME", &c.Guidance.HoldingTime)
	r.bool("DEBUG", &c.Guidance.Debug)
	if v, ok := r.get("OFFSET"); ok {
		p, err := guidance.ParseOffsetPolicy(v)
		r.fail("OFFSET", err)
		c.Guidance.Offset = p
	}

	r.lower("STRATEGY", &c.Strategy)
	if v, ok := r.get("FEATURES"); ok {
		c.Features = splitList(v)
	}
	r.lower("AREA_POLICY", &c.AreaPolicy)
	r.float("MIN_AREA", &c.MinArea)
	r.float("EPSILON", &c.Epsilon)
	r.lower("BACKEND", &c.Backend)

	r.duration("DETECT_INTERVAL", &c.DetectInterval)
	r.duration("VALIDATE_INTERVAL", &c.ValidateInterval)
	r.duration("HOLD_TICK", &c.HoldTick)
	r.duration("COOLDOWN", &c.Cooldown)
	r.int("NO_DETECTION_THRESHOLD", &c.NoDetectionThreshold)
	r.int("SNAPSHOT_WIDTH", &c.SnapshotWidth)

	r.int("GLARE_BRIGHTNESS", &c.GlareBrightness)
	r.float("GLARE_MIN_AREA", &c.GlareMinArea)

	r.str("OVERLAY_GUIDANCE_COLOR", &c.OverlayGuidanceColor)
	r.str("OVERLAY_DETECTED_COLOR", &c.OverlayDetectedColor)
	r.str("OVERLAY_GLARE_COLOR", &c.OverlayGlareColor)
	r.int("OVERLAY_THICKNESS", &c.OverlayThickness)

	r.lower("LOG_LEVEL", &c.LogLevel)
	r.str("LOG_FILE", &c.LogFile)

	if err := errors.Join(r.errs...); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

var validate = validator.New()

// Validate checks every field against its constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, len(verrs))
			for i, fe := range verrs {
				msgs[i] = fmt.Sprintf("%s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// ExtractorOptions returns the contour extraction settings.
func (c *Config) ExtractorOptions() (detection.ExtractorOptions, error) {
	policy, err := detection.ParseAreaPolicy(c.AreaPolicy)
	if err != nil {
		return detection.ExtractorOptions{}, err
	}
	return detection.ExtractorOptions{Policy: policy, MinArea: c.MinArea, Epsilon: c.Epsilon}, nil
}

// Finder creates the configured detection backend.
func (c *Config) Finder() (detection.Finder, error) {
	opts, err := c.ExtractorOptions()
	if err != nil {
		return nil, err
	}
	return detection.NewFinder(c.Backend, opts)
}

// GlareDetector returns the configured glare detector.
func (c *Config) GlareDetector() detection.GlareDetector {
	return detection.GlareDetector{Brightness: uint8(c.GlareBrightness), MinArea: c.GlareMinArea}
}

// OverlayStyle returns the debug overlay colors and stroke width.
func (c *Config) OverlayStyle() imaging.OverlayStyle {
	return imaging.OverlayStyle{
		GuidanceColor: c.OverlayGuidanceColor,
		DetectedColor: c.OverlayDetectedColor,
		GlareColor:    c.OverlayGlareColor,
		Thickness:     c.OverlayThickness,
	}
}

// Logging returns logger options.
func (c *Config) Logging() logging.Options {
	return logging.Options{Level: c.LogLevel, File: c.LogFile}
}

// SessionOptions turns the configuration into capture session options.
func (c *Config) SessionOptions() ([]capture.Option, error) {
	strategy, err := validation.ParseStrategy(c.Strategy)
	if err != nil {
		return nil, err
	}
	finder, err := c.Finder()
	if err != nil {
		return nil, err
	}
	return []capture.Option{
		capture.WithGuidance(c.Guidance),
		capture.WithFeatures(c.Features...),
		capture.WithStrategy(strategy),
		capture.WithFinder(finder),
		capture.WithGlareDetector(c.GlareDetector()),
		capture.WithIntervals(c.DetectInterval, c.ValidateInterval, c.HoldTick),
		capture.WithCooldown(c.Cooldown),
		capture.WithNoDetectionThreshold(c.NoDetectionThreshold),
		capture.WithSnapshotWidth(c.SnapshotWidth),
	}, nil
}

// reader parses prefixed variables and collects errors.
type reader struct {
	lookup func(string) (string, bool)
	errs   []error
}

func (r *reader) get(name string) (string, bool) {
	v, ok := r.lookup(Prefix + name)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func (r *reader) fail(name string, err error) {
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s%s: %w", Prefix, name, err))
	}
}

func (r *reader) str(name string, dst *string) {
	if v, ok := r.get(name); ok {
		*dst = v
	}
}

func (r *reader) lower(name string, dst *string) {
	if v, ok := r.get(name); ok {
		*dst = strings.ToLower(v)
	}
}

func (r *reader) float(name string, dst *float64) {
	if v, ok := r.get(name); ok {
		f, err := strconv.ParseFloat(v, 64)
		r.fail(name, err)
		if err == nil {
			*dst = f
		}
	}
}

func (r *reader) int(name string, dst *int) {
	if v, ok := r.get(name); ok {
		n, err := strconv.Atoi(v)
		r.fail(name, err)
		if err == nil {
			*dst = n
		}
	}
}

func (r *reader) bool(name string, dst *bool) {
	if v, ok := r.get(name); ok {
		b, err := strconv.ParseBool(v)
		r.fail(name, err)
		if err == nil {
			*dst = b
		}
	}
}

// duration accepts Go duration strings or a bare number of milliseconds.
func (r *reader) duration(name string, dst *time.Duration) {
	v, ok := r.get(name)
	if !ok {
		return
	}
	if ms, err := strconv.ParseInt(v, 10, 64); err == nil {
		*dst = time.Duration(ms) * time.Millisecond
		return
	}
	d, err := time.ParseDuration(v)
	r.fail(name, err)
	if err == nil {
		*dst = d
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.ToLower(strings.TrimSpace(part)); p != "" {
			out = append(out, p)
		}
	}
	return out
}
