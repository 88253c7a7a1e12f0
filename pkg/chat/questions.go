package chat

// tagQuestionMap turns a study tag into the follow-up question that
// confirms or rules out the matching criterion.
var tagQuestionMap = map[string]string{
	"require_female":        "Are you female?",
	"require_male":          "Are you male?",
	"require_bipolar":       "Have you been diagnosed with bipolar disorder?",
	"require_diabetes":      "Do you have diabetes?",
	"require_veteran":       "Are you a U.S. military veteran?",
	"exclude_bipolar":       "Have you been diagnosed with bipolar disorder (this study may exclude it)?",
	"exclude_pregnant":      "Are you currently pregnant or breastfeeding?",
	"include_depression":    "Do you have a history of depression?",
	"include_anxiety":       "Do you experience anxiety?",
	"include_ptsd":          "Have you been diagnosed with PTSD?",
	"include_veterans":      "Are you a U.S. military veteran?",
	"include_telehealth":    "Would you prefer telehealth (remote) options?",
	"include_seniors":       "Are you over the age of 60?",
	"include_pregnancy":     "Are you currently pregnant or breastfeeding?",
	"include_alcohol":       "Do you currently consume alcohol or have a history of alcohol use?",
	"include_substance use": "Do you have a history of substance use?",
	"include_children":      "Is this study for a child under your care?",
	"include_adults":        "Are you over 18 years old?",
	"include_adhd":          "Have you been diagnosed with ADHD?",
	"include_cancer":        "Do you have a history of cancer?",
	"include_lupus":         "Have you been diagnosed with lupus?",
	"include_pms":           "Do you experience premenstrual symptoms?",
}

// riverFollowUps are asked before confirming River Program eligibility.
var riverFollowUps = []string{
	"Have you been diagnosed with bipolar II disorder?",
	"Do you have uncontrolled high blood pressure?",
	"Have you used ketamine recreationally in the past?",
}

// redFlags trigger the crisis reply before anything else runs.
var redFlags = []string{
	"kill myself",
	"end my life",
	"can't do this anymore",
	"can’t do this anymore",
	"suicidal",
	"want to die",
}

const crisisReply = "If you’re in immediate danger, call 911 or contact the 988 Suicide & Crisis Lifeline."
