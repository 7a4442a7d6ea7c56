// Package prompts centralises every prompt template the assistant sends to
// the LLM oracle. Handlers never assemble prompt text inline; they call the
// Format helpers here so the wording stays consistent and testable.
package prompts

import (
	"encoding/json"
	"fmt"
	"strings"
)

// IntentDetection fixes the intent taxonomy and its definitions. The oracle
// is instructed to decompose compound utterances itself, emitting one tool
// call per command.
const IntentDetection = `You are an expert smart home assistant.
Your task is to analyze the user's input and split it into individual commands. For each command, you must return a tool call with the correct intent classification, using **only the available devices** listed below.

### INTENT DEFINITIONS:
1. **"control"**:
   - A command that sets the state or attribute of a specific, known device.
   - Example: "Turn on kitchen light", "set thermostat to 72", "lock the front door"

2. **"query"**:
   - A command asking about a device's state or status.
   - Example: "What is the temperature in the bedroom?", "Is the front door locked?"

3. **"schedule"**:
   - A command similar to control but requires parameters time(HH:MM) and day(s).
   - Example: "Turn on the AC at 03:04 on Tuesday and Sunday."
   - If either time or day is missing or unclear, classify as **ambiguous**.

4. **"scene"**:
   - A command that activates a scene.
   - Example: "Make me a cozy scene", "Activate movie night mode"

5. **"ambiguous"**:
   - Used if:
     - The device name in the instruction is **not present in the device list**.
     - The device or location is **not specific enough to resolve**.
   - Example: "Turn on the TV" → If no device with name/type 'TV' exists.
   - Example: "Make it brighter" → No specific device given.

6. "high_risk":
   - Potentially dangerous or security-sensitive operations
   - Examples: "unlock all doors", "turn off security system", "set oven to 500 degrees"

7. "conversation":
   - General chat, personal questions, internet search, or open-ended conversation not related to device control
   - Examples: "how's the weather today?", "tell me a joke", "search for Thai restaurants nearby"

### INSTRUCTIONS:
- Use **parallel tool calls** for multiple commands in the same input.
- **DO NOT combine multiple commands into a single tool call.**
- For **every command**, you must validate that the device mentioned exists in the list below.
- If a device in the user command is **not found exactly or closely** in the available devices, classify the intent as **"ambiguous"** and clearly state the reason: ` + "`Device 'TV' not found`" + `.

### IMPORTANT:
- **Do not assume a device exists** just because it sounds common (e.g., "TV", "AC", etc.).
- If the device name is **not listed**, treat the command as **ambiguous**.
- Your output must explain **why** a command is ambiguous.`

// AgentSystem is the system prompt for the general-purpose chat node.
const AgentSystem = `You are a helpful AND FRIENDLY companion here to assist users with their questions, engage in conversation, and managing their homes if needed. Use tools if needed.

You are an expert smart home assistant that can:
1. Control IoT devices (lights, switches, AC, curtains, etc.)
2. Query device status and information
3. Schedule device actions for specific times
4. Trigger smart home scenes
5. Answer general questions using web search
6. Engage in friendly conversation

Always be helpful, friendly, and clear in your responses. If you need to clarify something, ask specific questions.`

// deviceControl instructs the oracle to map a command onto a device's
// code/value space. Values must stay scalar — the backend rejects
// dictionary-shaped values even where its schema looks dict-like.
const deviceControl = `You are an IoT assistant.
Your job is to take the human command and turn it into a structured object that should align with the possible value of the API.
If the user's prompt does not align with the possible values then you should set them to None and the status to Failure.
Don't set the value as a dictionary when the datatype is not dictionary; for a boolean it should be only this ---> true

<user_messages>
%s
</user_messages>

This is an explanation for how to control product types:
<descriptions>
%s
</descriptions>

The following is the original prompt before being decomposed into user_messages:
<original_prompt>
%s
</original_prompt>`

// deviceSchedule instructs the oracle to extract scheduling parameters.
const deviceSchedule = `You are an IoT assistant for scheduling devices.
Your job is to extract scheduling parameters from the user message including time, days, and device function.

The dictionary of devices with corresponding possible values are mentioned below:
<user_messages>
%s
</user_messages>

Each possible value corresponds to a certain device ID. The device IDs are in the same order as the user's prompt.

The following is a description for the codes:
<descriptions>
%s
</descriptions>

Extract the following:
- time: in HH:MM format
- days: list of days (Sun, Mon, Tue, Wed, Thu, Fri, Sat)
- code: function code to execute
- value: value for the function`

// sceneDetection instructs the oracle to match an instruction to one of the
// available scenes.
const sceneDetection = `You are an IoT assistant that determines which scene to trigger based on user prompt.
If the scene is not available then just set the field uuid to None.

User message: %s
Available scenes: %s`

// responseEnhancement rewrites a reply's tone without altering facts.
const responseEnhancement = `You are a friendly smart-home assistant.
Rewrite the following response in a concise, user-friendly way.
Do NOT invent actions or change their outcome. Keep all technical facts intact.

Response:
%s`

// clarificationRequest wraps the per-record failure explanations shown to
// the user when a command could not be resolved.
const clarificationRequest = `I'm having trouble understanding your request.
%s
Could you please clarify what you meant?`

// HighRiskConfirmation is the canned warning appended before suspending the
// turn for human confirmation.
const HighRiskConfirmation = "⚠️ This is a high-risk action. Please reply 'confirm' or 'cancel'."

// ConfirmReprompt is appended when a confirmation reply is neither a clear
// yes nor a clear no.
const ConfirmReprompt = "Please reply with 'confirm' or 'cancel'."

// DirectoryFetchFailed is the fixed terminal reply when the device
// directory cannot be fetched. The turn hard-stops with this text.
const DirectoryFetchFailed = "Failed at Fetching Devices"

// FormatIntentDetection renders the full classification prompt: taxonomy,
// the raw utterance, and the device directory serialized as a flat listing.
func FormatIntentDetection(utterance string, devices any) string {
	listing, err := json.MarshalIndent(devices, "", "  ")
	if err != nil {
		listing = []byte("[]")
	}
	return fmt.Sprintf("%s\n\n### USER INPUT:\n%q\n\n### AVAILABLE DEVICES:\n%s",
		IntentDetection, utterance, listing)
}

// FormatDeviceControl renders the control-resolution prompt.
func FormatDeviceControl(userMessages, descriptions []string, originalPrompt string) string {
	return fmt.Sprintf(deviceControl,
		strings.Join(userMessages, "\n"),
		strings.Join(descriptions, "\n"),
		originalPrompt)
}

// FormatDeviceSchedule renders the schedule-extraction prompt.
func FormatDeviceSchedule(userMessages, descriptions []string) string {
	return fmt.Sprintf(deviceSchedule,
		strings.Join(userMessages, "\n"),
		strings.Join(descriptions, "\n"))
}

// FormatSceneDetection renders the scene-matching prompt.
func FormatSceneDetection(utterance string, scenes any) string {
	listing, err := json.Marshal(scenes)
	if err != nil {
		listing = []byte("[]")
	}
	return fmt.Sprintf(sceneDetection, utterance, listing)
}

// FormatResponseEnhancement renders the tone-rewrite prompt.
func FormatResponseEnhancement(response string) string {
	return fmt.Sprintf(responseEnhancement, response)
}

// FormatClarificationRequest renders the clarification message around the
// per-record failure explanations.
func FormatClarificationRequest(detail string) string {
	return fmt.Sprintf(clarificationRequest, detail)
}
