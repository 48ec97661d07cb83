package question

// Category is the start-screen metadata for one interview type.
type Category struct {
	Type        Type
	Title       string
	Description string
	Tips        []string
}

var categories = map[Type]Category{
	TypeBehavioral: {
		Type:        TypeBehavioral,
		Title:       "Behavioral Interview",
		Description: "Practice answering questions about your past experiences and behavior.",
		Tips: []string{
			"Use the STAR method (Situation, Task, Action, Result)",
			"Be specific with examples",
			"Keep answers concise but detailed",
		},
	},
	TypeTechnical: {
		Type:        TypeTechnical,
		Title:       "Technical Interview",
		Description: "Prepare for technical questions and problem-solving scenarios.",
		Tips: []string{
			"Think out loud while solving problems",
			"Ask clarifying questions when needed",
			"Explain your thought process clearly",
		},
	},
	TypeProduct: {
		Type:        TypeProduct,
		Title:       "Product Management",
		Description: "Practice product strategy and stakeholder management.",
		Tips: []string{
			"Focus on data-driven decisions",
			"Consider multiple stakeholders",
			"Explain trade-offs in your choices",
		},
	},
	TypeF1Visa: {
		Type:        TypeF1Visa,
		Title:       "F1 Student Visa Interview",
		Description: "Prepare for your student visa interview.",
		Tips: []string{
			"Be clear about your study plans",
			"Have financial documentation ready",
			"Show strong ties to home country",
		},
	},
	TypeB1B2Visa: {
		Type:        TypeB1B2Visa,
		Title:       "B1/B2 Visitor Visa",
		Description: "Practice for visitor visa interviews.",
		Tips: []string{
			"Be clear about visit purpose",
			"Show evidence of return",
			"Demonstrate financial capability",
		},
	},
	TypeCustom: {
		Type:        TypeCustom,
		Title:       "Interview Practice",
		Description: "Practice with custom questions.",
		Tips: []string{
			"Read each question carefully",
			"Take time to structure your response",
			"Be honest and specific",
		},
	},
}

// Describe returns the category metadata for t.
func Describe(t Type) Category {
	if c, ok := categories[t]; ok {
		return c
	}
	return categories[TypeCustom]
}

// Defaults returns the built-in bank for t. Unknown types and custom get the
// single placeholder prompt.
func Defaults(t Type) []Question {
	switch t {
	case TypeBehavioral:
		return []Question{
			{ID: "1", Type: t, Text: "Tell me about a time when you had to work with a difficult teammate.", Tip: "Use the STAR method (Situation, Task, Action, Result) to clearly outline your experience."},
			{ID: "2", Type: t, Text: "Describe a situation where you had to manage multiple priorities under a tight deadline.", Tip: "Focus on how you organized your time and communicated with stakeholders."},
			{ID: "3", Type: t, Text: "Tell me about a failure or mistake you made and how you handled it.", Tip: "Be honest, and show what you learned and how you improved."},
		}
	case TypeTechnical:
		return []Question{
			{ID: "1", Type: t, Text: "Design a scalable architecture for a real-time chat application.", Tip: "Mention components like WebSockets, load balancing, and database scaling."},
			{ID: "2", Type: t, Text: "What are the differences between SQL and NoSQL databases?", Tip: "Include use cases where each would be preferable."},
			{ID: "3", Type: t, Text: "Explain how you would debug a performance issue in a production app.", Tip: "Walk through tools and your thought process clearly."},
		}
	case TypeProduct:
		return []Question{
			{ID: "1", Type: t, Text: "How would you prioritize features for an MVP launch of a new product?", Tip: "Use frameworks like RICE or MoSCoW if applicable."},
			{ID: "2", Type: t, Text: "Describe a time when you had to make a tradeoff between customer needs and technical limitations.", Tip: "Show how you communicated with both engineers and stakeholders."},
			{ID: "3", Type: t, Text: "How do you measure the success of a product feature after it ships?", Tip: "Mention KPIs, user feedback, and iteration strategies."},
		}
	case TypeF1Visa:
		return []Question{
			{ID: "1", Type: t, Text: "Why did you choose this university and program in the U.S.?", Tip: "Talk about academic strengths and alignment with your goals."},
			{ID: "2", Type: t, Text: "Who is sponsoring your education, and what do they do?", Tip: "Be specific about your financial plan and support."},
			{ID: "3", Type: t, Text: "What are your plans after completing your degree?", Tip: "Focus on career aspirations and returning to your home country."},
		}
	case TypeB1B2Visa:
		return []Question{
			{ID: "1", Type: t, Text: "What is the purpose of your visit to the United States?", Tip: "Be clear about the reason and duration."},
			{ID: "2", Type: t, Text: "Do you have any relatives in the U.S.? What do they do?", Tip: "Explain the relationship and provide brief context."},
			{ID: "3", Type: t, Text: "What ties do you have to your home country?", Tip: "Mention family, job, property, or financial commitments."},
		}
	default:
		return []Question{
			{ID: "1", Type: TypeCustom, Text: "This is a custom interview. Please upload or define your own questions.", Tip: "Tailor this session by providing the most relevant questions."},
		}
	}
}
