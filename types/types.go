package types

// Mode selects where input assets come from.
type Mode string

const (
	ModeLocal Mode = "local"
	ModeDrive Mode = "drive"
)

// LocalParams are the optional path overrides for local mode. Empty fields
// fall back to the conventional defaults.
type LocalParams struct {
	GameplayDir   string `json:"gameplay_dir,omitempty"`
	ScreenshotDir string `json:"screenshot_dir,omitempty"`
	KeywordFile   string `json:"aso_file,omitempty"`
	GameFile      string `json:"game_file,omitempty"`
}

// DriveParams identify the cloud-storage folder for drive mode.
type DriveParams struct {
	CredentialsFile string `json:"drive_creds_json,omitempty"`
	FolderID        string `json:"drive_folder_id,omitempty"`
}

// RunParams carries the mode-specific parameters for one pipeline run.
type RunParams struct {
	Local LocalParams
	Drive DriveParams
}

// AssetSet is the uniform local view of one run's inputs, immutable once
// resolved.
type AssetSet struct {
	VideoPaths      []string `json:"video_paths"`
	ImagePaths      []string `json:"image_paths"`
	KeywordText     string   `json:"-"`
	GameDescription string   `json:"-"`
}

// KeywordScore is one ranked trend entry.
type KeywordScore struct {
	Keyword string  `json:"keyword"`
	Score   float64 `json:"score"`
}

// TrendInfo holds the ranked keywords and derived hashtag recommendations.
// Keywords are sorted by descending score with ties kept in input order.
type TrendInfo struct {
	TopKeywords         []KeywordScore `json:"top_trending"`
	RecommendedHashtags []string       `json:"recommended_hashtags"`
}

// AssetKind distinguishes the two media types the pipeline understands.
type AssetKind string

const (
	AssetVideo AssetKind = "video"
	AssetImage AssetKind = "image"
)

// AssetDescription is the derived text for one input asset. Produced once,
// never mutated afterward.
type AssetDescription struct {
	Path string    `json:"path"`
	Kind AssetKind `json:"kind"`
	Text string    `json:"text"`
}

// PostOption is one candidate social-media post. The quality stage may
// truncate Title/Caption in place; finalization never mutates it.
type PostOption struct {
	OptionNumber int      `json:"option_number"`
	Title        string   `json:"title"`
	Caption      string   `json:"caption"`
	Hashtags     []string `json:"hashtags"`
}

// QualityReport aggregates the quality stage's findings for one run.
type QualityReport struct {
	Score           int      `json:"quality_score"`
	Violations      []string `json:"violations"`
	ImagesDir       string   `json:"images_dir"`
	ProcessedImages []string `json:"processed_images"`
}

// FinalPackage points at the run's terminal artifacts.
type FinalPackage struct {
	JSONPath    string `json:"final_json_path"`
	ArchivePath string `json:"package_zip_path"`
}

// RunResult is the success response of one pipeline run.
type RunResult struct {
	Status          string `json:"status"`
	FinalJSON       string `json:"final_post_json"`
	PackageZip      string `json:"package_zip"`
	OutputDir       string `json:"outputs_dir"`
	Summary         string `json:"summary"`
	StagesCompleted int    `json:"stages_completed"`
	TotalStages     int    `json:"total_stages"`
}

// PipelineState is the per-run checkpoint written after every stage.
type PipelineState struct {
	RunID           string   `json:"run_id"`
	Mode            Mode     `json:"mode"`
	StartedAt       string   `json:"started_at"`
	CompletedAt     string   `json:"completed_at,omitempty"`
	StagesCompleted []string `json:"stages_completed"`
	FinalJSON       string   `json:"final_json,omitempty"`
	PackageZip      string   `json:"package_zip,omitempty"`
	Error           string   `json:"error,omitempty"`
}
