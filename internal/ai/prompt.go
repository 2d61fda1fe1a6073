package ai

// AnalysisPrompt instructs the model to classify a product and reply with
// a bare JSON object.
const AnalysisPrompt = `You are an environmental analysis AI inside a product checking tool.
Given only lightweight scraped text (materials, description, ingredients, packaging, certifications):

1. Classify the product as:
   - Eco-Friendly
   - Moderate
   - Not Eco-Friendly

2. Return JSON:
{
 "label": "",
 "confidence": 0-100,
 "summary": "",
 "explanation": {
   "carbon_footprint": "",
   "recyclability": "",
   "toxicity": "",
   "durability": "",
   "certifications_found": [],
   "greenwashing_risk": ""
 }
}

Use fast, resource-friendly heuristics based on:
- Materials
- Packaging
- Certifications
- Durability
- Manufacturing claims
- Risk of greenwashing

IMPORTANT: Return ONLY valid JSON, no markdown, no code blocks, just the JSON object.`

// BuildPrompt appends the product text to the analysis prompt.
func BuildPrompt(productText string) string {
	return AnalysisPrompt + "\n\nProduct information:\n" + productText
}
