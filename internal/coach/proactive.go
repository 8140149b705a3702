package coach

import "strings"

// NudgeKind identifies which rule produced a proactive message.
type NudgeKind string

const (
	NudgeBreakfast NudgeKind = "breakfast"
	NudgeLunch     NudgeKind = "lunch"
	NudgeDinner    NudgeKind = "dinner"
	NudgeProtein   NudgeKind = "protein"
	NudgeWorkout   NudgeKind = "workout"
)

// ProteinTargetGrams is the daily protein floor below which a protein nudge fires.
const ProteinTargetGrams = 50

// Snapshot is the selector input: the user's local hour and what they have
// logged so far.
type Snapshot struct {
	Hour               int      `json:"hour"` // 0-23 in the user's time zone
	TodayMealTypes     []string `json:"today_meal_types"`
	TodayProteinGrams  float64  `json:"today_protein_grams"`
	RecentWorkoutCount int      `json:"recent_workout_count"` // trailing 48 hours
}

// Nudge is one proactive coaching message.
type Nudge struct {
	Kind    NudgeKind `json:"kind"`
	Message string    `json:"message"`
}

var nudgeMessages = map[NudgeKind]string{
	NudgeBreakfast: "Good morning! You haven't logged breakfast yet. A protein-rich start keeps energy steady through the day.",
	NudgeLunch:     "Lunch time. Log your meal and aim for a solid protein serving to stay on track.",
	NudgeDinner:    "Don't forget dinner. Finish the day with lean protein and vegetables to support recovery.",
	NudgeProtein:   "You're under 50g of protein today. Add a shake, eggs, or Greek yogurt to close the gap.",
	NudgeWorkout:   "No workouts in the last two days. Even a 20 minute session keeps your momentum going.",
}

// SelectProactive returns the highest-priority nudge for the snapshot, or
// false when no rule matches. Rules are checked in order:
//
//  1. 08:00-11:59 with no breakfast logged
//  2. 12:00-15:59 with no lunch logged
//  3. 18:00-21:59 with no dinner logged
//  4. any meal logged and protein under ProteinTargetGrams
//  5. no workouts in 48 hours, 09:00-19:59
func SelectProactive(s Snapshot) (Nudge, bool) {
	switch {
	case s.Hour >= 8 && s.Hour < 12 && !s.hasMeal("Breakfast"):
		return newNudge(NudgeBreakfast), true
	case s.Hour >= 12 && s.Hour < 16 && !s.hasMeal("Lunch"):
		return newNudge(NudgeLunch), true
	case s.Hour >= 18 && s.Hour < 22 && !s.hasMeal("Dinner"):
		return newNudge(NudgeDinner), true
	case len(s.TodayMealTypes) > 0 && s.TodayProteinGrams < ProteinTargetGrams:
		return newNudge(NudgeProtein), true
	case s.RecentWorkoutCount == 0 && s.Hour >= 9 && s.Hour < 20:
		return newNudge(NudgeWorkout), true
	}
	return Nudge{}, false
}

func (s Snapshot) hasMeal(mealType string) bool {
	for _, t := range s.TodayMealTypes {
		if strings.EqualFold(strings.TrimSpace(t), mealType) {
			return true
		}
	}
	return false
}

func newNudge(kind NudgeKind) Nudge {
	return Nudge{Kind: kind, Message: nudgeMessages[kind]}
}

var nudgeTitles = map[NudgeKind]string{
	NudgeBreakfast: "Breakfast reminder",
	NudgeLunch:     "Lunch reminder",
	NudgeDinner:    "Dinner reminder",
	NudgeProtein:   "Protein check",
	NudgeWorkout:   "Time to move",
}

// Title is a short heading for push notifications.
func (n Nudge) Title() string {
	if t, ok := nudgeTitles[n.Kind]; ok {
		return t
	}
	return "Coach"
}
