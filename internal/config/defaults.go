package config

const (
	defaultInputDir               = "~/.local/share/labelclean/input"
	defaultOutputDir              = "~/.local/share/labelclean/output"
	defaultLogDir                 = "~/.local/share/labelclean/logs"
	defaultReferenceDir           = "~/.local/share/labelclean/reference"
	defaultBatchSize              = 50
	defaultMaxWorkers             = 4
	defaultParallelMinIngredients = 10
	defaultFuzzyThreshold         = 85
	defaultPartialThreshold       = 90
	defaultDosageTolerance        = 0.20
	defaultMatchCacheSize         = 10000
	defaultLogFormat              = "console"
	defaultLogLevel               = "info"
	defaultLogRetentionDays       = 60
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			InputDir:     defaultInputDir,
			OutputDir:    defaultOutputDir,
			LogDir:       defaultLogDir,
			ReferenceDir: defaultReferenceDir,
		},
		Processing: Processing{
			BatchSize:              defaultBatchSize,
			MaxWorkers:             defaultMaxWorkers,
			ParallelMinIngredients: defaultParallelMinIngredients,
		},
		Matching: Matching{
			FuzzyThreshold:   defaultFuzzyThreshold,
			PartialThreshold: defaultPartialThreshold,
			DosageTolerance:  defaultDosageTolerance,
			CacheSize:        defaultMatchCacheSize,
		},
		Options: Options{
			SkipNutritionFacts: true,
			TrackUnmapped:      true,
		},
		OutputFormat: OutputFormat{
			PrettyPrint: true,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
