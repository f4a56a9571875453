package script

import "fmt"

// systemPrompt instructs the model to caption slides and write narration as
// strict JSON so the response can be decoded directly.
const systemPrompt = `You are a slideshow narrator. You receive a sequence of images in presentation order.
For every image, write a short caption (at most 10 words) and one or two sentences of spoken narration.
The narration is read aloud by a text-to-speech voice, so write natural, flowing prose without markup.
Respond with JSON only, in this exact shape:
{"slides":[{"caption":"...","narration":"..."}]}
The slides array must contain exactly one entry per image, in the same order the images appear.`

func userPrompt(slideCount int) string {
	return fmt.Sprintf("Caption and narrate these %d slides in order.", slideCount)
}
