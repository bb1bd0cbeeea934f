package summary

import "fmt"

const (
	assistantSystem = "You are an intelligent assistant."
	writerSystem    = "You are an intelligent agent with an exceptional skills in writing."
)

func chunkPrompt(body string) string {
	return fmt.Sprintf(`Summarize the following text extracted from a mailing-list discussion, adhering to these guidelines:
    1. Keep the summary formal and high in informational content.
    2. Do not begin with phrases such as "The email discusses...", "In this context..." or "The text covers..."; state the points directly.
    3. Retain any links given within the text and incorporate them appropriately.
    4. Mention the full names of the authors where they are known.
    5. Ensure that punctuation is followed by a space and that all syntax rules are adhered to.
CONTEXT:

%s`, body)
}

func consolidatePrompt(summaries string) string {
	return fmt.Sprintf(`The following are partial summaries of one mailing-list discussion, in order. Combine them into a single coherent summary, adhering to these guidelines:
    1. Remove repetition while keeping every distinct technical point.
    2. Keep a formal tone and break the result into short paragraphs, each covering one aspect.
    3. Do not refer to "the summaries", "the context" or "the email"; present the information directly.
    4. Retain any links and the full names of the authors.
CONTEXT:

%s`, summaries)
}

func titlePrompt(summaries string) string {
	return fmt.Sprintf(`Write a concise, informative title of at most twelve words for the discussion summarized below. Return only the title, without quotes or a trailing period.
CONTEXT:

%s`, summaries)
}

func bulletsPrompt(summary string, n int) string {
	return fmt.Sprintf(`Summarize the following email into %d distinct sentences based on the guidelines mentioned below.
    1. Each sentence you write should not exceed fifteen words.
    2. Each sentence should begin on a new line and should start with a hyphen (-) and you must add space after hyphen (-).
        E.g., - This is a first sentence. - This is a second sentence. - This is a third sentence.
        E.g., Incorrect: "-This is a sentence.-This is another sentence."
            Correct: "- This is a sentence. - This is another sentence."
    3. Please adhere to all English grammatical rules while writing the sentences, maintaining formal tone and employing proper spacing.
    4. While summarizing, avoid using phrases referring to the context. Instead, directly present the information or points covered.
        Do not introduce sentences with phrases like: "The context discusses...", "In this context..." or "The context covers..."
CONTEXT:

%s`, n, summary)
}

func headerPrompt(recent string) string {
	return fmt.Sprintf(`You are required to produce a concise header summary from a compilation of condensed recent discussions. Transform the following extracted text from mailing lists into a brief summary composed of only three or four significant sentences, adhering to these important criteria:
    Guidelines:
        1. While synthesizing, refrain from or reword phrases like "The context discusses...", "The email discusses...", "In this context...", "The context covers...", "The context questions...", "In this email...", "The email covers..." and similar phrases.
        2. The summarization must have a formal tone and be high in informational content.
        3. Ensure that punctuation is followed by a space and that all syntax rules are adhered to.
        4. Any links given within the text should be retained and appropriately incorporated.
        5. Rather than being a simple rewording of the original content, the summary should restructure and simplify the main points.
        6. Mention full names (both the first name and last name) of the authors if applicable.
        7. Break down the summary into concise, meaningful paragraphs ensuring each paragraph captures a unique aspect or perspective from the original text, provided it should be no longer than three or four sentences.
        8. Please ensure that the summary does not start with labels like "Email 1:", "Email 2:" and so on.

 CONTEXT:

%s`, recent)
}
