package models

// Node configuration payloads as authored in the flow editor.

type TriggerConfig struct {
	Keywords      []string `json:"keywords,omitempty"`
	CaseSensitive bool     `json:"caseSensitive,omitempty"`
}

type SendTextConfig struct {
	Message string `json:"message" validate:"required"`
}

type SendImageConfig struct {
	ImageURL string `json:"imageUrl"          validate:"required"`
	Caption  string `json:"caption,omitempty"`
}

type Button struct {
	ID    string `json:"id"    validate:"required"`
	Title string `json:"title" validate:"required"`
}

type SendButtonsConfig struct {
	BodyText   string   `json:"bodyText"             validate:"required"`
	HeaderText string   `json:"headerText,omitempty"`
	FooterText string   `json:"footerText,omitempty"`
	Buttons    []Button `json:"buttons"              validate:"required,min=1,dive"`
}

type ListRow struct {
	ID          string `json:"id"                    validate:"required"`
	Title       string `json:"title"                 validate:"required"`
	Description string `json:"description,omitempty"`
}

type ListSection struct {
	Title string    `json:"title"`
	Rows  []ListRow `json:"rows"  validate:"required,min=1,dive"`
}

type SendListConfig struct {
	BodyText   string        `json:"bodyText"             validate:"required"`
	ButtonText string        `json:"buttonText"           validate:"required"`
	HeaderText string        `json:"headerText,omitempty"`
	FooterText string        `json:"footerText,omitempty"`
	Sections   []ListSection `json:"sections"             validate:"required,min=1,dive"`
}

// ExpectedType restricts which reply content a wait accepts.
type ExpectedType string

const (
	ExpectedText   ExpectedType = "text"
	ExpectedButton ExpectedType = "button"
	ExpectedList   ExpectedType = "list"
	ExpectedImage  ExpectedType = "image"
	ExpectedAny    ExpectedType = "any"
)

type WaitForReplyConfig struct {
	VariableName   string       `json:"variableName"             validate:"required"`
	ExpectedType   ExpectedType `json:"expectedType,omitempty"   validate:"omitempty,oneof=text button list image any"`
	TimeoutSeconds int          `json:"timeoutSeconds,omitempty" validate:"gte=0"`
}

// ConditionRule is one branch of a condition node.
type ConditionRule struct {
	Variable     string `json:"variable"               validate:"required"`
	Operator     string `json:"operator"               validate:"required"`
	Value        any    `json:"value,omitempty"`
	OutputHandle string `json:"outputHandle,omitempty"`
}

type ConditionConfig struct {
	Conditions    []ConditionRule `json:"conditions"              validate:"dive"`
	DefaultHandle string          `json:"defaultHandle,omitempty"`
}

// AssignmentValueType selects how a setVariable assignment computes its value.
type AssignmentValueType string

const (
	ValueTypeStatic       AssignmentValueType = "static"
	ValueTypeExpression   AssignmentValueType = "expression"
	ValueTypeFromVariable AssignmentValueType = "from_variable"
)

type VariableAssignment struct {
	VariableName string              `json:"variableName" validate:"required"`
	ValueType    AssignmentValueType `json:"valueType"    validate:"omitempty,oneof=static expression from_variable"`
	Value        any                 `json:"value"`
}

type SetVariableConfig struct {
	Assignments []VariableAssignment `json:"assignments" validate:"dive"`
}

type ResponseMapping struct {
	JSONPath     string `json:"jsonPath"     validate:"required"`
	VariableName string `json:"variableName" validate:"required"`
}

type APICallConfig struct {
	Method          string            `json:"method"                    validate:"omitempty,oneof=GET POST PUT PATCH DELETE get post put patch delete"`
	URL             string            `json:"url"                       validate:"required"`
	Headers         map[string]string `json:"headers,omitempty"`
	Body            string            `json:"body,omitempty"`
	ResponseMapping []ResponseMapping `json:"responseMapping,omitempty" validate:"dive"`
	TimeoutMs       int               `json:"timeoutMs,omitempty"       validate:"gte=0"`
}

type DelayConfig struct {
	DelaySeconds int `json:"delaySeconds" validate:"gte=0"`
}

// LoopType selects the continuation rule of a loop node.
type LoopType string

const (
	LoopTypeCount   LoopType = "count"
	LoopTypeWhile   LoopType = "while"
	LoopTypeForeach LoopType = "foreach"
)

type LoopConfig struct {
	LoopType      LoopType       `json:"loopType"                validate:"required,oneof=count while foreach"`
	MaxIterations int            `json:"maxIterations,omitempty" validate:"gte=0"`
	Collection    string         `json:"collection,omitempty"    validate:"required_if=LoopType foreach"`
	ItemVariable  string         `json:"itemVariable,omitempty"`
	Condition     *ConditionRule `json:"condition,omitempty"`
}

// EndType selects the terminal status of an end node.
type EndType string

const (
	EndTypeComplete EndType = "complete"
	EndTypeError    EndType = "error"
)

type EndConfig struct {
	EndType EndType `json:"endType,omitempty" validate:"omitempty,oneof=complete error"`
	Message string  `json:"message,omitempty"`
}
