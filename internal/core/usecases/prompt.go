package usecases

import "fmt"

// coordinatePrompt builds the analysis prompt for a coordinate pair.
func coordinatePrompt(lat, lon float64) string {
	return fmt.Sprintf(`Analyze flood risk for the location at latitude %g, longitude %g.

Provide a detailed assessment including:
1. Risk level (Low/Medium/High)
2. The main terrain and hydrological factors driving the risk
3. 3-5 specific recommendations for residents or planners
4. Any known historical flooding context for the area
5. Estimated elevation in meters
6. Estimated distance to the nearest significant water body in meters

Respond with a JSON object with exactly these fields:
- risk_level (string)
- factors (array of strings)
- recommendations (array of strings)
- historical_context (string)
- elevation (number)
- distance_from_water (number)
- analysis (detailed text)`, lat, lon)
}

// imagePrompt builds the analysis prompt for a terrain photo.
func imagePrompt() string {
	return `Analyze this terrain image for flood risk.

Provide a detailed assessment including:
1. Risk level (Low/Medium/High)
2. The visible terrain features driving the risk
3. 3-5 specific recommendations
4. Any historical flooding context suggested by the landscape
5. Estimated elevation in meters
6. Estimated distance to visible water bodies in meters

Respond with a JSON object with exactly these fields:
- risk_level (string)
- factors (array of strings)
- recommendations (array of strings)
- historical_context (string)
- elevation (number)
- distance_from_water (number)
- analysis (detailed text)`
}

// strictJSONInstruction is appended on the single retry after an unparseable
// response. No prose, no code fences.
const strictJSONInstruction = `

IMPORTANT: respond with ONLY the raw JSON object. Do not include markdown code fences, explanations, or any text outside the JSON object. risk_level must be exactly one of "Low", "Medium", or "High".`
