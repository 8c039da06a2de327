// Package ai provides prompt rendering, response parsing and structural
// validation for the generative model integration.
package ai

import (
	"fmt"
	"strings"
)

// Prompt templates. The contract with the model is purely textual: caller
// fields are inserted verbatim, no escaping.
const cardGenerationPrompt = `You are a historian and content creator specializing in Middle Eastern history and politics.

Your task: Generate a comprehensive, well-researched historical event card.

TITLE: %s
SYSTEM PROMPT (Your perspective/angle): %s
TOPICS TO COVER: %s

%sPlease generate a response in the following JSON format:
{
  "title": "The exact title of the event",
  "description": "A detailed, markdown-formatted description of the historical event. Include sections with ## headers, use **bold** for emphasis, and structure the content logically. Aim for 500-1000 words.",
  "keywords": ["keyword1", "keyword2", "keyword3", "keyword4", "keyword5"]
}

Guidelines:
1. Be historically accurate and cite sources where relevant
2. Present multiple perspectives on the event
3. Use clear, accessible language
4. Structure the content with headers and bullet points where appropriate
5. Ensure the keywords are relevant and searchable

Return ONLY the JSON object, no additional text.`

// contextInsertion is rendered only when context text is supplied; when there
// is no context the section is omitted entirely, not left empty.
const contextInsertion = `ADDITIONAL CONTEXT FROM PROVIDED DOCUMENT:
%s

Use this context to inform and enhance your response, but also supplement with your knowledge.

`

const copilotPrompt = `You are a helpful, knowledgeable assistant for a historical event reference platform.

QUESTION FROM USER: %s

DOCUMENT CONTEXT:
%s

Your task: Answer the user's question based ONLY on the provided document context.
If the answer cannot be found in the context, say so explicitly.

Keep your answer:
- Clear and concise
- Grounded in the provided text
- Accurate and factual
- In plain, accessible language

Respond with the answer only, no preamble.`

const biasJudgePrompt = `You are an expert in media analysis and bias detection.

Your task: Analyze the following historical content for neutrality and potential bias.

CONTENT TO ANALYZE:
%s

Please evaluate the content and return a JSON response in this format:
{
  "bias_score": <a number from 0.0 to 100.0>,
  "explanation": "A detailed explanation of your analysis"
}

Where:
- 0-20: Highly neutral and objective
- 21-40: Mostly neutral with minor bias
- 41-60: Balanced but with noticeable bias
- 61-80: Significantly biased
- 81-100: Extremely biased

Evaluation criteria:
1. **Loaded Language:** Check for emotionally charged adjectives or adverbs that inject opinion
2. **Framing:** Assess if events are presented from a single perspective or multiple viewpoints
3. **Attribution:** Look for one-sided attribution of motives or blame
4. **Omissions:** Note important facts or perspectives that are absent
5. **Evidence:** Check if claims are supported or merely asserted
6. **Neutrality:** Consider if the tone maintains professional distance or leans persuasive

Return ONLY the JSON object with bias_score (float) and explanation (string), no additional text.`

// BuildCardGenerationPrompt renders the card generation prompt. The
// "ADDITIONAL CONTEXT" section is included only when contextText is non-empty.
func BuildCardGenerationPrompt(title, systemPrompt, topicsToCover, contextText string) string {
	contextSection := ""
	if strings.TrimSpace(contextText) != "" {
		contextSection = fmt.Sprintf(contextInsertion, contextText)
	}
	return fmt.Sprintf(cardGenerationPrompt, title, systemPrompt, topicsToCover, contextSection)
}

// BuildCopilotPrompt renders the copilot Q&A prompt over the given document context.
func BuildCopilotPrompt(question, context string) string {
	return fmt.Sprintf(copilotPrompt, question, context)
}

// BuildBiasJudgePrompt renders the bias analysis prompt for the given content.
func BuildBiasJudgePrompt(content string) string {
	return fmt.Sprintf(biasJudgePrompt, content)
}
