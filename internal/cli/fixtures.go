package cli

import (
	"greensys-quiz-service/internal/domain"
	"greensys-quiz-service/internal/infra/memory"
)

func str(s string) *string { return &s }

// sampleFixtures provides a minimal demo quiz for running the gateway
// with neither a backend URL nor a Postgres URL configured. The demo
// token doubles as the login.
func sampleFixtures() *memory.StaticSource {
	groups := map[string]domain.QuizPayload{
		"group-1": {
			Group: domain.QuizGroup{
				ID:              "group-1",
				Title:           "Pengantar IPA",
				DurationMinutes: 10,
				KelasID:         "kelas-7a",
				ModulID:         "modul-ipa-1",
			},
			Questions: []domain.Question{
				{
					ID:      "soal-1",
					Prompt:  "Berapakah hasil dari 2 + 2?",
					OptionA: str("3"),
					OptionB: str("4"),
					OptionC: str("5"),
					Answer:  "B",
				},
				{
					ID:      "soal-2",
					Prompt:  "Planet terdekat dari matahari adalah?",
					OptionA: str("Venus"),
					OptionB: str("Bumi"),
					OptionC: str("Merkurius"),
					OptionD: str("Mars"),
					Answer:  "C",
				},
			},
		},
	}
	students := map[string]domain.Student{
		"demo-token": {ID: "siswa-1", Name: "Siswa Demo"},
	}
	return memory.NewStaticSource(groups, students)
}
