package engine

// Catalog IDs are persisted on profiles and completion records; keep them stable.

// DefaultCalorieRates are kcal burned per minute at light intensity.
func DefaultCalorieRates() map[ActivityType]float64 {
	return map[ActivityType]float64{
		ActivityRunning:  12,
		ActivityWalking:  5,
		ActivityCycling:  10,
		ActivityStrength: 8,
		ActivityYoga:     4,
		ActivityCardio:   11,
		ActivitySwimming: 10,
		ActivitySports:   9,
	}
}

// DefaultQuests is the daily quest catalog.
func DefaultQuests() []Quest {
	return []Quest{
		{
			ID:                      "morning-jumpstart",
			Title:                   "Morning Jumpstart",
			Description:             "Complete any workout for 15 minutes",
			Points:                  40,
			RequiredDurationMinutes: 15,
		},
		{
			ID:                      "cardio-champion",
			Title:                   "Cardio Champion",
			Description:             "Do 30 minutes of cardio",
			Points:                  60,
			RequiredDurationMinutes: 30,
			RequiredActivityType:    ActivityCardio,
		},
		{
			ID:                      "strength-seeker",
			Title:                   "Strength Seeker",
			Description:             "Complete a 20 minute strength session",
			Points:                  50,
			RequiredDurationMinutes: 20,
			RequiredActivityType:    ActivityStrength,
		},
		{
			ID:                      "zen-master",
			Title:                   "Zen Master",
			Description:             "Practice yoga for 25 minutes",
			Points:                  45,
			RequiredDurationMinutes: 25,
			RequiredActivityType:    ActivityYoga,
		},
		{
			ID:                      "endurance-elite",
			Title:                   "Endurance Elite",
			Description:             "Stay active for 45 minutes",
			Points:                  75,
			RequiredDurationMinutes: 45,
		},
	}
}

// DefaultAchievements is the badge catalog.
func DefaultAchievements() []Badge {
	return []Badge{
		{ID: "beginner", Name: "First Steps", Description: "Complete your first workout", RequirementType: RequirementWorkoutCount, RequirementValue: 1, Rarity: RarityCommon, Points: 10},
		{ID: "consistent", Name: "Getting Consistent", Description: "Complete 5 workouts", RequirementType: RequirementWorkoutCount, RequirementValue: 5, Rarity: RarityCommon, Points: 25},
		{ID: "dedicated", Name: "Dedicated", Description: "Complete 20 workouts", RequirementType: RequirementWorkoutCount, RequirementValue: 20, Rarity: RarityUncommon, Points: 50},
		{ID: "warrior", Name: "Fitness Warrior", Description: "Complete 50 workouts", RequirementType: RequirementWorkoutCount, RequirementValue: 50, Rarity: RarityRare, Points: 100},
		{ID: "legendary", Name: "Legendary", Description: "Complete 100 workouts", RequirementType: RequirementWorkoutCount, RequirementValue: 100, Rarity: RarityLegendary, Points: 250},

		{ID: "point-master", Name: "Point Master", Description: "Earn 5000 points", RequirementType: RequirementPoints, RequirementValue: 5000, Rarity: RarityRare, Points: 100},
		{ID: "super-star", Name: "Super Star", Description: "Earn 10000 points", RequirementType: RequirementPoints, RequirementValue: 10000, Rarity: RarityEpic, Points: 200},
		{ID: "champion", Name: "Champion", Description: "Earn 25000 points", RequirementType: RequirementPoints, RequirementValue: 25000, Rarity: RarityLegendary, Points: 500},

		{ID: "streak-starter", Name: "Streak Starter", Description: "Work out 3 days in a row", RequirementType: RequirementStreak, RequirementValue: 3, Rarity: RarityCommon, Points: 15},
		{ID: "on-fire", Name: "On Fire", Description: "Work out 7 days in a row", RequirementType: RequirementStreak, RequirementValue: 7, Rarity: RarityUncommon, Points: 50},
		{ID: "unstoppable", Name: "Unstoppable", Description: "Work out 30 days in a row", RequirementType: RequirementStreak, RequirementValue: 30, Rarity: RarityEpic, Points: 200},
		{ID: "streak-master", Name: "Streak Master", Description: "Work out 100 days in a row", RequirementType: RequirementStreak, RequirementValue: 100, Rarity: RarityLegendary, Points: 500},
		{ID: "week-warrior", Name: "Week Warrior", Description: "Keep a streak for a full week", RequirementType: RequirementWeeklyStreak, RequirementValue: 7, Rarity: RarityUncommon, Points: 50},
		{ID: "month-master", Name: "Month Master", Description: "Keep a streak for a full month", RequirementType: RequirementMonthlyStreak, RequirementValue: 30, Rarity: RarityEpic, Points: 200},

		{ID: "early-bird", Name: "Early Bird", Description: "Work out before 7 AM", RequirementType: RequirementEarlyWorkout, RequirementValue: 1, Rarity: RarityUncommon, Points: 25},
		{ID: "night-owl", Name: "Night Owl", Description: "Work out after 10 PM", RequirementType: RequirementLateWorkout, RequirementValue: 1, Rarity: RarityUncommon, Points: 25},

		{ID: "marathon-runner", Name: "Marathon Runner", Description: "Run 100 km in total", RequirementType: RequirementDistance, RequirementValue: 100, ActivityType: ActivityRunning, Rarity: RarityRare, Points: 150},
		{ID: "cyclist", Name: "Road Cyclist", Description: "Cycle 200 km in total", RequirementType: RequirementDistance, RequirementValue: 200, ActivityType: ActivityCycling, Rarity: RarityRare, Points: 150},
		{ID: "swimmer", Name: "Swimmer", Description: "Swim 50 km in total", RequirementType: RequirementDistance, RequirementValue: 50, ActivityType: ActivitySwimming, Rarity: RarityRare, Points: 150},

		{ID: "yogi", Name: "Yogi", Description: "Complete 25 yoga sessions", RequirementType: RequirementActivityCount, RequirementValue: 25, ActivityType: ActivityYoga, Rarity: RarityUncommon, Points: 75},
		{ID: "weight-lifter", Name: "Weight Lifter", Description: "Complete 50 strength sessions", RequirementType: RequirementActivityCount, RequirementValue: 50, ActivityType: ActivityStrength, Rarity: RarityRare, Points: 100},
		{ID: "cardio-king", Name: "Cardio King", Description: "Complete 50 cardio sessions", RequirementType: RequirementActivityCount, RequirementValue: 50, ActivityType: ActivityCardio, Rarity: RarityRare, Points: 100},

		{ID: "competitor", Name: "Competitor", Description: "Join 3 challenges", RequirementType: RequirementChallenges, RequirementValue: 3, Rarity: RarityUncommon, Points: 50},

		{ID: "hour-warrior", Name: "Hour Warrior", Description: "Complete a 60 minute workout", RequirementType: RequirementSingleDuration, RequirementValue: 60, Rarity: RarityUncommon, Points: 50},
		{ID: "iron-man", Name: "Iron Man", Description: "Complete a 120 minute workout", RequirementType: RequirementSingleDuration, RequirementValue: 120, Rarity: RarityEpic, Points: 150},
	}
}

// DefaultChallengeTemplates is the catalog of reusable challenge definitions.
func DefaultChallengeTemplates() []ChallengeTemplate {
	return []ChallengeTemplate{
		{ID: "weekly-runner", Title: "Weekly Runner", Description: "Run the most distance this week", GoalType: GoalDistance, GoalValue: 20, ActivityType: ActivityRunning, DurationDays: 7},
		{ID: "streak-warrior", Title: "Streak Warrior", Description: "Maintain the longest workout streak", GoalType: GoalStreak, GoalValue: 14, DurationDays: 14},
		{ID: "calorie-burner", Title: "Calorie Burner", Description: "Burn the most calories", GoalType: GoalCalories, GoalValue: 3000, DurationDays: 7},
		{ID: "variety-challenge", Title: "Variety Champion", Description: "Try different workout types", GoalType: GoalVariety, GoalValue: 5, DurationDays: 7},
		{ID: "early-bird", Title: "Early Bird", Description: "Complete workouts before 7 AM", GoalType: GoalEarlyWorkouts, GoalValue: 5, DurationDays: 7},
		{ID: "endurance-master", Title: "Endurance Master", Description: "Accumulate total workout time", GoalType: GoalDuration, GoalValue: 600, DurationDays: 30},
	}
}

// MotivationalMessage returns an encouraging line for the given streak length.
func MotivationalMessage(streak int) string {
	switch {
	case streak <= 0:
		return "Start your streak today!"
	case streak < 3:
		return "Great start! Keep it going!"
	case streak < 7:
		return "You're building a habit!"
	case streak < 14:
		return "One week strong! Amazing!"
	case streak < 30:
		return "You're on fire! Unstoppable!"
	default:
		return "Legendary dedication!"
	}
}
