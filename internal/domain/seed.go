package domain

// SeedGreekGods возвращает стартовый набор записей. Счётчик идентификаторов после него начинается с 16.
func SeedGreekGods() []GreekGod {
	olympians := []struct {
		name  string
		power string
	}{
		{"Zeus", "Thunder"},
		{"Hera", "Marriage"},
		{"Poseidon", "Sea"},
		{"Demeter", "Harvest"},
		{"Athena", "Wisdom"},
		{"Apollo", "Sun"},
		{"Artemis", "Hunt"},
		{"Ares", "War"},
		{"Aphrodite", "Love"},
		{"Hephaestus", "Fire"},
		{"Hermes", "Travel"},
		{"Dionysus", "Wine"},
		{"Hades", "Underworld"},
		{"Hestia", "Hearth"},
		{"Persephone", "Spring"},
	}

	gods := make([]GreekGod, 0, len(olympians))
	for i, o := range olympians {
		gods = append(gods, GreekGod{
			ID:        int64(i + 1),
			Name:      o.name,
			Power:     Some(o.power),
			IsDemiGod: Some(false),
		})
	}
	return gods
}
