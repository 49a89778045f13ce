package ibge

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/brgeotools/munimerge/internal/fetcher"
	"github.com/brgeotools/munimerge/internal/store"
)

// FileCache records downloaded files so later runs can reuse them.
type FileCache interface {
	GetCachedFile(ctx context.Context, url string) (*store.CachedFile, error)
	PutCachedFile(ctx context.Context, f store.CachedFile) error
}

// BoundaryLoader resolves the municipal boundary mesh. Resolution order:
// a configured local file, then a cached download, then a fresh download
// over HTTP or FTP.
type BoundaryLoader struct {
	httpFetcher fetcher.Fetcher
	ftpFetcher  fetcher.Fetcher
	cache       FileCache
	cacheDir    string
	localFile   string
	meshURL     string
	log         *zap.Logger
}

// BoundaryOptions configures a BoundaryLoader.
type BoundaryOptions struct {
	// LocalFile, when set, is used directly and no download happens.
	// May be a .shp or a .zip containing one.
	LocalFile string

	// URL overrides the mesh download location. Defaults to the IBGE
	// geoftp location for Year.
	URL string

	// Year selects the mesh vintage when URL is empty.
	Year int

	// CacheDir receives downloaded archives and extracted files.
	CacheDir string

	// Cache, when non-nil, is consulted before downloading.
	Cache FileCache
}

// MeshURL returns the IBGE download location for the given mesh year.
func MeshURL(year int) string {
	return fmt.Sprintf(
		"https://geoftp.ibge.gov.br/organizacao_do_territorio/malhas_territoriais/malhas_municipais/municipio_%d/Brasil/BR/BR_Municipios_%d.zip",
		year, year,
	)
}

func NewBoundaryLoader(httpF, ftpF fetcher.Fetcher, opts BoundaryOptions) *BoundaryLoader {
	meshURL := opts.URL
	if meshURL == "" {
		year := opts.Year
		if year == 0 {
			year = DefaultBoundariesYear
		}
		meshURL = MeshURL(year)
	}
	return &BoundaryLoader{
		httpFetcher: httpF,
		ftpFetcher:  ftpF,
		cache:       opts.Cache,
		cacheDir:    opts.CacheDir,
		localFile:   opts.LocalFile,
		meshURL:     meshURL,
		log:         zap.L().With(zap.String("component", "ibge.boundaries")),
	}
}

// Load resolves the mesh and parses it into municipalities.
func (l *BoundaryLoader) Load(ctx context.Context) ([]Municipality, error) {
	archive, err := l.resolve(ctx)
	if err != nil {
		return nil, err
	}

	shpPath, err := l.shapefilePath(archive)
	if err != nil {
		return nil, err
	}

	munis, err := ParseMunicipalMesh(shpPath)
	if err != nil {
		return nil, err
	}
	l.log.Info("loaded municipal boundaries",
		zap.String("shapefile", shpPath),
		zap.Int("municipalities", len(munis)),
	)
	return munis, nil
}

// resolve returns a local path to the mesh file, downloading when needed.
func (l *BoundaryLoader) resolve(ctx context.Context) (string, error) {
	if l.localFile != "" {
		if _, err := os.Stat(l.localFile); err != nil {
			return "", eris.Wrapf(err, "ibge: boundaries file %s", l.localFile)
		}
		l.log.Info("using local boundaries file", zap.String("path", l.localFile))
		return l.localFile, nil
	}

	if l.cache != nil {
		entry, err := l.cache.GetCachedFile(ctx, l.meshURL)
		if err != nil {
			return "", err
		}
		if entry != nil {
			if _, statErr := os.Stat(entry.Path); statErr == nil {
				l.log.Info("using cached boundaries download", zap.String("path", entry.Path))
				return entry.Path, nil
			}
			l.log.Warn("cached boundaries file missing on disk, re-downloading",
				zap.String("path", entry.Path))
		}
	}

	return l.download(ctx)
}

func (l *BoundaryLoader) download(ctx context.Context) (string, error) {
	u, err := url.Parse(l.meshURL)
	if err != nil {
		return "", eris.Wrapf(err, "ibge: parse mesh url %s", l.meshURL)
	}

	f := l.httpFetcher
	if u.Scheme == "ftp" {
		f = l.ftpFetcher
	}
	if f == nil {
		return "", eris.Errorf("ibge: no fetcher for scheme %s", u.Scheme)
	}

	if err := os.MkdirAll(l.cacheDir, 0o755); err != nil {
		return "", eris.Wrapf(err, "ibge: create cache dir %s", l.cacheDir)
	}
	dest := filepath.Join(l.cacheDir, path.Base(u.Path))

	l.log.Info("downloading municipal boundaries", zap.String("url", l.meshURL))
	n, err := f.DownloadToFile(ctx, l.meshURL, dest)
	if err != nil {
		return "", eris.Wrapf(err, "ibge: download boundaries %s", l.meshURL)
	}
	l.log.Info("downloaded municipal boundaries",
		zap.String("path", dest),
		zap.Int64("bytes", n),
	)

	if l.cache != nil {
		var etag string
		if u.Scheme != "ftp" {
			etag, _ = f.HeadETag(ctx, l.meshURL)
		}
		if err := l.cache.PutCachedFile(ctx, store.CachedFile{
			URL:  l.meshURL,
			ETag: etag,
			Path: dest,
		}); err != nil {
			return "", err
		}
	}
	return dest, nil
}

// shapefilePath returns the .shp inside archive, extracting zips next to
// their source.
func (l *BoundaryLoader) shapefilePath(archive string) (string, error) {
	if !strings.EqualFold(filepath.Ext(archive), ".zip") {
		return archive, nil
	}

	destDir := strings.TrimSuffix(archive, filepath.Ext(archive))
	if l.localFile != "" && l.cacheDir != "" {
		destDir = filepath.Join(l.cacheDir, strings.TrimSuffix(filepath.Base(archive), filepath.Ext(archive)))
	}
	extracted, err := fetcher.ExtractZIP(archive, destDir)
	if err != nil {
		return "", err
	}
	shpPath := fetcher.FindBySuffix(extracted, ".shp")
	if shpPath == "" {
		return "", eris.Errorf("ibge: no shapefile in %s", archive)
	}
	return shpPath, nil
}
