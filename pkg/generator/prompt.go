package generator

import (
	"fmt"
	"strings"
)

func buildPrompt(r LessonRequest) string {
	var b strings.Builder
	b.WriteString("Por favor, crie um plano de aula detalhado e estruturado.\n")
	line := func(label, value string) {
		if strings.TrimSpace(value) != "" {
			fmt.Fprintf(&b, "- %s: %s\n", label, strings.TrimSpace(value))
		}
	}
	line("Professor(a)", r.TeacherName)
	line("Escola", r.SchoolName)
	line("Data", r.Date)
	line("Nível de Ensino", r.EducationLevel)
	line("Turma/Série", r.Grade)
	line("Disciplina", r.Subject)
	line("Conteúdo Específico", r.Topic)
	b.WriteString("\nO plano deve ser criativo, prático e estritamente adequado para o nível de ensino e a turma especificada.\n")
	b.WriteString("Siga o schema JSON fornecido para a resposta.")
	return b.String()
}
