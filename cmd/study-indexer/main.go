package main

import (
	"context"
	"encoding/json"
	"flag"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/Sue-Ann-CliniContact/hey-hope-mental-health-app/pkg/catalog"
	"github.com/Sue-Ann-CliniContact/hey-hope-mental-health-app/pkg/common/config"
	"github.com/Sue-Ann-CliniContact/hey-hope-mental-health-app/pkg/common/database"
	"github.com/Sue-Ann-CliniContact/hey-hope-mental-health-app/pkg/common/logger"
	"github.com/Sue-Ann-CliniContact/hey-hope-mental-health-app/pkg/common/models"
	"github.com/Sue-Ann-CliniContact/hey-hope-mental-health-app/pkg/geocode"
	"github.com/Sue-Ann-CliniContact/hey-hope-mental-health-app/pkg/indexer"
	"github.com/Sue-Ann-CliniContact/hey-hope-mental-health-app/pkg/terminology"
)

func main() {
	xmlDir := flag.String("xml-dir", "ctg-public-xml", "directory of ClinicalTrials.gov XML exports")
	outFile := flag.String("out", "indexed_studies.json", "path of the JSON catalog snapshot")
	usOnly := flag.Bool("us-only", true, "keep only studies recruiting in the United States")
	skipGeocode := flag.Bool("skip-geocode", false, "skip geocoding study locations")
	skipDB := flag.Bool("skip-db", false, "skip writing rows to postgres")
	flag.Parse()
	keywords := flag.Args()

	logger.Init()
	cfg := config.Load()

	synonyms, err := terminology.Load(cfg.SynonymCatalogPath)
	if err != nil {
		logger.Log.WithError(err).Fatal("failed to load synonym catalog")
	}
	ix := indexer.New(synonyms, keywords, *usOnly)

	var geocoder geocode.Geocoder
	if !*skipGeocode {
		geocoder = geocode.NewCached(
			geocode.NewGoogleClient(cfg.GoogleMapsAPIKey, cfg.GeocodeTimeout),
			database.GetRedis(),
			cfg.GeocodeCacheTTL,
		)
	}

	ctx := context.Background()
	studies := walkStudies(ctx, ix, geocoder, *xmlDir)

	if err := writeSnapshot(*outFile, studies); err != nil {
		logger.Log.WithError(err).Fatal("failed to write catalog snapshot")
	}
	logger.Log.WithField("count", len(studies)).WithField("path", *outFile).Info("Catalog snapshot written")

	if !*skipDB {
		persist(ctx, studies)
	}
}

func walkStudies(ctx context.Context, ix *indexer.Indexer, geocoder geocode.Geocoder, dir string) []models.StudyRecord {
	var studies []models.StudyRecord
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".xml") {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			logger.Log.WithError(err).WithField("file", path).Error("Failed to read study file")
			return nil
		}
		record, err := ix.Parse(data)
		if err != nil {
			logger.Log.WithError(err).WithField("file", path).Error("Failed to parse study file")
			return nil
		}
		if record == nil {
			return nil
		}

		if geocoder != nil && record.Location != "" {
			if result, err := geocoder.Geocode(ctx, record.Location); err == nil && result != nil {
				point := result.Point
				record.Coordinates = &point
			}
		}
		studies = append(studies, *record)
		return nil
	})
	if err != nil {
		logger.Log.WithError(err).WithField("dir", dir).Fatal("failed to walk study directory")
	}
	return studies
}

func writeSnapshot(path string, studies []models.StudyRecord) error {
	data, err := json.MarshalIndent(studies, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func persist(ctx context.Context, studies []models.StudyRecord) {
	db, err := database.GetPostgres()
	if err != nil {
		logger.Log.WithError(err).Fatal("failed to connect to postgres")
	}
	repo := catalog.NewRepository(db)
	if err := repo.AutoMigrate(); err != nil {
		logger.Log.WithError(err).Fatal("failed to migrate catalog tables")
	}

	stored := 0
	for i := range studies {
		row, err := catalog.EncodeRow(studies[i])
		if err != nil {
			logger.Log.WithError(err).WithField("nct_id", studies[i].NCTID).Error("Failed to encode study row")
			continue
		}
		if err := repo.Upsert(ctx, row); err != nil {
			logger.Log.WithError(err).WithField("nct_id", studies[i].NCTID).Error("Failed to upsert study row")
			continue
		}
		stored++
	}
	logger.Log.WithField("count", stored).Info("Catalog rows upserted")
}
