package main

import (
	"flag"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"nyulnorm/pkg/config"
	"nyulnorm/pkg/imageio"
	"nyulnorm/pkg/normalization"
)

func main() {
	trainDir := flag.String("train", "", "Directory of training images to learn the standard scale from")
	inputDir := flag.String("input", "", "Directory of images to normalize onto the standard scale")
	outputDir := flag.String("output", "normalized", "Directory to write normalized images to")
	scalePath := flag.String("scale", "standard_scale.yaml", "Standard scale file to write (learning) or read (applying)")
	configPath := flag.String("config", "config.yaml", "YAML configuration file")
	numCores := flag.Int("cores", 0, "Number of CPU cores to use (default: configuration value)")
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()

	if *trainDir == "" && *inputDir == "" {
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *configPath).Msg("failed to load configuration")
	}
	if cfg.Processing.Verbose {
		log = log.Level(zerolog.DebugLevel)
	} else {
		log = log.Level(zerolog.InfoLevel)
	}
	if *numCores > 0 {
		cfg.Processing.NumCores = *numCores
	}

	interpType, err := normalization.ParseInterpType(cfg.Normalization.InterpType)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid interpolation type")
	}
	extrapolation, err := normalization.ParseExtrapolationMode(cfg.Normalization.Extrapolation)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid extrapolation mode")
	}

	var scale *normalization.StandardScale

	if *trainDir != "" {
		images, _, err := imageio.LoadDirectory(*trainDir)
		if err != nil {
			log.Fatal().Err(err).Str("dir", *trainDir).Msg("failed to load training images")
		}
		log.Info().Int("images", len(images)).Str("dir", *trainDir).Msg("learning standard scale")

		params := &normalization.Params{
			IMin:           cfg.Normalization.IMin,
			IMax:           cfg.Normalization.IMax,
			ISMin:          cfg.Normalization.ISMin,
			ISMax:          cfg.Normalization.ISMax,
			LPercentile:    cfg.Normalization.LPercentile,
			UPercentile:    cfg.Normalization.UPercentile,
			Step:           cfg.Normalization.Step,
			MaskBackground: cfg.Normalization.MaskBackground,
			NumWorkers:     cfg.Processing.NumCores,
			Progress: func(completed, total int) {
				log.Debug().Int("completed", completed).Int("total", total).Msg("training image processed")
			},
		}
		scale, err = normalization.LearnStandardScale(images, params)
		if err != nil {
			log.Fatal().Err(err).Msg("learning failed")
		}
		if err := scale.Save(*scalePath); err != nil {
			log.Fatal().Err(err).Str("path", *scalePath).Msg("failed to save standard scale")
		}
		log.Info().Str("path", *scalePath).Floats64("percentiles", scale.Percentiles).Msg("standard scale saved")
	}

	if *inputDir != "" {
		if scale == nil {
			scale, err = normalization.LoadStandardScale(*scalePath)
			if err != nil {
				log.Fatal().Err(err).Str("path", *scalePath).Msg("failed to load standard scale")
			}
		}

		images, names, err := imageio.LoadDirectory(*inputDir)
		if err != nil {
			log.Fatal().Err(err).Str("dir", *inputDir).Msg("failed to load input images")
		}
		log.Info().Int("images", len(images)).Str("dir", *inputDir).Msg("normalizing images")

		applyParams := &normalization.ApplyParams{
			Interp:         interpType,
			Extrapolation:  extrapolation,
			MaskBackground: cfg.Normalization.MaskBackground,
		}
		for i, img := range images {
			normalized, err := normalization.ApplyStandardScale(img, scale, applyParams)
			if err != nil {
				log.Fatal().Err(err).Str("image", names[i]).Msg("normalization failed")
			}
			outPath := filepath.Join(*outputDir, pngName(names[i]))
			if err := imageio.SaveGray16(normalized, outPath); err != nil {
				log.Fatal().Err(err).Str("image", names[i]).Msg("failed to write normalized image")
			}
			log.Debug().Str("image", names[i]).Str("output", outPath).Msg("image normalized")
		}
		log.Info().Str("dir", *outputDir).Msg("normalization complete")
	}
}

// pngName swaps a filename's extension for .png
func pngName(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name)) + ".png"
}
