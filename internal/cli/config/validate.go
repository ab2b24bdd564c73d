package config

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
)

// Log formats accepted by --log-format.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// OutputModes lists the accepted --output values.
var OutputModes = []string{"auto", "text", "markdown", "json"}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	var errs []error

	if c.APIURL == "" {
		errs = append(errs, errors.New("api_url is required"))
	} else if u, err := url.Parse(c.APIURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("api_url %q must be an absolute http(s) URL", c.APIURL))
	}

	if c.Output != "" && !slices.Contains(OutputModes, c.Output) {
		errs = append(errs, fmt.Errorf("unknown output mode %q (want one of auto, text, markdown, json)", c.Output))
	}
	switch c.LogFormat {
	case "", LogFormatText, LogFormatJSON:
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q (want text or json)", c.LogFormat))
	}

	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout must not be negative, got %s", c.Timeout))
	}
	if c.Retries < 0 {
		errs = append(errs, fmt.Errorf("retries must not be negative, got %d", c.Retries))
	}
	if err := validPort("ui.port", c.UI.Port); err != nil {
		errs = append(errs, err)
	}
	if err := validPort("mock.port", c.Mock.Port); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func validPort(key string, port int) error {
	if port < 0 || port > 65535 {
		return fmt.Errorf("%s must be between 0 and 65535, got %d", key, port)
	}
	return nil
}
