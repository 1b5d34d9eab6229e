package gemini

import "fmt"

const analysisPromptTemplate = `You are analyzing a short-form %s video. Watch the video and respond with JSON only, using exactly this shape:

{
  "transcript": "complete verbatim transcript of all spoken words",
  "hook": "the attention-grabbing opening moment",
  "bridge": "how the video transitions from hook to main content",
  "nugget": "the core value or insight the video delivers",
  "callToAction": "what the viewer is asked to do, empty string if none",
  "visualContext": "one or two sentences describing the visual setting, on-screen text, and editing style",
  "contentMetadata": {
    "author": "the creator name or handle if shown on screen, empty string if not visible",
    "description": "the caption or description if shown on screen, empty string if not visible",
    "hashtags": ["hashtags visible in the video or caption, without the # prefix"]
  }
}

Transcribe every spoken word. If the video has no speech, describe the on-screen text and visuals in the transcript field. The contentMetadata fields are best-effort: only report what is actually visible. Do not wrap the JSON in markdown fences.`

func analysisPrompt(platformHint string) string {
	if platformHint == "" {
		platformHint = "social media"
	}
	return fmt.Sprintf(analysisPromptTemplate, platformHint)
}
