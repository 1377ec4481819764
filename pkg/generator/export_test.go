package generator

var (
	BuildPrompt = buildPrompt
	DecodePlan  = decodePlan
)
