package geoip

import (
	"compress/gzip"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"

	"github.com/biter777/countries"
	"github.com/oschwald/geoip2-golang"
	"go.uber.org/zap"

	"github.com/trackforge/s2s/internal/logging"
)

var (
	reader *geoip2.Reader
	dbPath string
)

// Init opens the GeoLite2-City database under dataDir, downloading it first
// when missing. Lookups are optional: a missing or unreadable database never
// fails startup, clicks simply carry no geo fields.
func Init(dataDir string) error {
	dbPath = filepath.Join(dataDir, "GeoLite2-City.mmdb")

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		logging.L().Info("geoip database not found; attempting download", zap.String("path", dbPath))
		if err := downloadDatabase(dbPath); err != nil {
			logging.L().Warn("geoip database download failed; clicks will carry no geo fields",
				zap.Error(err))
			logging.L().Info("download GeoLite2-City manually and place it at the configured path",
				zap.String("path", dbPath))
			return nil
		}
		logging.L().Info("geoip database downloaded")
	}

	var err error
	reader, err = geoip2.Open(dbPath)
	if err != nil {
		logging.L().Warn("could not load geoip database; clicks will carry no geo fields",
			zap.Error(err))
		return nil
	}

	logging.L().Info("geoip database loaded", zap.String("path", dbPath))
	return nil
}

// LookupIP returns the ISO country code, city, and region for an IP address.
// Empty strings when the database is unavailable or the IP is unknown.
func LookupIP(ipStr string) (country, city, region string) {
	if reader == nil {
		return "", "", ""
	}

	ip := net.ParseIP(ipStr)
	if ip == nil {
		return "", "", ""
	}

	record, err := reader.City(ip)
	if err != nil {
		logging.L().Warn("geoip lookup error", zap.String("ip", ipStr), zap.Error(err))
		return "", "", ""
	}

	country = record.Country.IsoCode
	city = record.City.Names["en"]
	if len(record.Subdivisions) > 0 {
		region = record.Subdivisions[0].Names["en"]
	}

	return country, city, region
}

// CountryName expands an ISO alpha-2 code into a display name, returning the
// code itself when it is not recognized.
func CountryName(isoCode string) string {
	if isoCode == "" {
		return ""
	}
	country := countries.ByName(isoCode)
	if country == countries.Unknown {
		return isoCode
	}
	return country.String()
}

// Close closes the GeoIP database.
func Close() error {
	if reader != nil {
		return reader.Close()
	}
	return nil
}

// downloadDatabase fetches the GeoLite2-City database from the jsDelivr mirror
// of the geolite2-city npm package.
func downloadDatabase(dbPath string) error {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	url := "https://cdn.jsdelivr.net/npm/geolite2-city/GeoLite2-City.mmdb.gz"
	logging.L().Info("downloading geoip database", zap.String("url", url))

	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logging.L().Warn("failed to close geoip response body", zap.Error(err))
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed with status %d", resp.StatusCode)
	}

	gzReader, err := gzip.NewReader(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer func() {
		if err := gzReader.Close(); err != nil {
			logging.L().Warn("failed to close geoip gzip reader", zap.Error(err))
		}
	}()

	out, err := os.Create(dbPath)
	if err != nil {
		return err
	}
	defer func() {
		if err := out.Close(); err != nil {
			logging.L().Warn("failed to close geoip output file", zap.Error(err))
		}
	}()

	if _, err := io.Copy(out, gzReader); err != nil {
		return fmt.Errorf("failed to write database: %w", err)
	}

	return nil
}
