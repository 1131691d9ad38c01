package config

const (
	defaultConfigPath         = "~/.config/annotator/config.toml"
	defaultPromptsDir         = "~/.config/annotator/prompts"
	defaultLogDir             = "~/.local/share/annotator/logs"
	defaultAnnotationsFile    = "meta/lerobot_annotations.json"
	subtaskExamplesFile       = "subtask_prompt.txt"
	vqaDemosFile              = "vqa_prompt.txt"
	defaultVideoKey           = ""
	defaultFPS                = 30.0
	defaultInferenceBaseURL   = "http://127.0.0.1:8000/v1"
	defaultInferenceTimeout   = 120
	defaultInferenceTitle     = "annotator"
	defaultFFmpegBinary       = "ffmpeg"
	defaultFFprobeBinary      = "ffprobe"
	defaultImageMaxSide       = 768
	defaultSubtaskStride      = 2.0
	defaultSubtaskSummary     = 6
	defaultSubtaskSegment     = 8
	defaultSubtaskMaxSteps    = 200
	defaultSubtaskLanguage    = "auto"
	defaultSubtaskTemperature = 0.2
	defaultSubtaskMaxTokens   = 64
	defaultVQAStride          = 6.0
	defaultVQAWindow          = 2.0
	defaultVQAWindowFrames    = 3
	defaultVQAMaxSteps        = 200
	defaultVQALanguage        = "en"
	defaultVQAScenarioType    = "vqa"
	defaultVQAResponseType    = "answer"
	defaultVQASkill           = "fake_vqa"
	defaultVQATemperature     = 0.2
	defaultVQAMaxTokens       = 128
	defaultVQADemoPairsMax    = 20
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

const defaultSubtaskSystemPrompt = `You label short clips of a robot manipulation episode.
Each clip covers one window of the episode. Name the subtask the robot is
performing in that window as a short imperative phrase (for example
"pick up the red cup"). Reuse the same wording when the robot is still doing
the same thing as before. Output ONLY JSON: {"label": "..."}.`

const defaultSubtaskUserTemplate = `Episode summary:
{episode_summary}

Example labels:
{examples}

The attached clip covers {seg_start_s}s to {seg_end_s}s ({duration_s}s long).
Answer in language: {language}.
Return {{"label": "..."}}.`

const defaultVQASystemPrompt = `You write visual question/answer pairs for robot manipulation videos.
The question must be answerable from the first image alone, and the answer
must stay true for the whole attached clip. Prefer concrete, checkable facts
about objects, colors, counts and positions. If nothing suitable is visible,
reply {"skip": true}. Otherwise output ONLY JSON:
{"question": "...", "answer": "..."}.`

const defaultVQAUserTemplate = `Examples:
{qa_demos}

Questions already asked (do not repeat them):
{recent_questions}

The window starts at {time_s}s and lasts {window_s}s; the next window starts {stride_s}s later.
Language: {language}.`

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			CacheDir:   defaultCacheDir(),
			PromptsDir: defaultPromptsDir,
			LogDir:     defaultLogDir,
		},
		Dataset: Dataset{
			VideoKey:        defaultVideoKey,
			DefaultFPS:      defaultFPS,
			AnnotationsFile: defaultAnnotationsFile,
		},
		Inference: Inference{
			BaseURL:        defaultInferenceBaseURL,
			TimeoutSeconds: defaultInferenceTimeout,
			Title:          defaultInferenceTitle,
		},
		Media: Media{
			FFmpegBinary:  defaultFFmpegBinary,
			FFprobeBinary: defaultFFprobeBinary,
			ImageMaxSide:  defaultImageMaxSide,
		},
		Subtasks: Subtasks{
			StrideSeconds:      defaultSubtaskStride,
			SummaryFrames:      defaultSubtaskSummary,
			SegmentFrames:      defaultSubtaskSegment,
			MaxSteps:           defaultSubtaskMaxSteps,
			Language:           defaultSubtaskLanguage,
			Temperature:        defaultSubtaskTemperature,
			MaxTokens:          defaultSubtaskMaxTokens,
			MergeAdjacent:      true,
			SystemPrompt:       defaultSubtaskSystemPrompt,
			UserPromptTemplate: defaultSubtaskUserTemplate,
		},
		VQA: VQA{
			StrideSeconds:      defaultVQAStride,
			WindowSeconds:      defaultVQAWindow,
			WindowFrames:       defaultVQAWindowFrames,
			MaxSteps:           defaultVQAMaxSteps,
			Language:           defaultVQALanguage,
			ScenarioType:       defaultVQAScenarioType,
			ResponseType:       defaultVQAResponseType,
			Skill:              defaultVQASkill,
			Temperature:        defaultVQATemperature,
			MaxTokens:          defaultVQAMaxTokens,
			DemoPairsMax:       defaultVQADemoPairsMax,
			SystemPrompt:       defaultVQASystemPrompt,
			UserPromptTemplate: defaultVQAUserTemplate,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
