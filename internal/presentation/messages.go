package presentation

import (
	"context"
	"errors"
	"strings"

	"github.com/bryanwahyu/repo-analyzer/internal/domain/analysis"
	"github.com/bryanwahyu/repo-analyzer/internal/domain/session"
)

// Messages holds every user-facing string of the page.
type Messages struct {
	Lang string

	Title        string
	Tagline      string
	RepoLabel    string
	RepoHint     string
	Relational   string
	Document     string
	Submit       string
	Analyzing    string
	PendingHint  string
	EmptyState   string
	ErrorHeading string

	TabOverview  string
	TabPersonas  string
	TabSales     string
	TabCritique  string
	TabTechnical string

	Summary       string
	TechStack     string
	Features      string
	Pitch         string
	Channels      string
	Monetization  string
	Audience      string
	Strategy      string
	Critiques     string
	Improvements  string
	PainPoints    string
	Goals         string
	Age           string
	Explanation   string
	Diagram       string
	SchemaSQL     string
	SchemaDoc     string
	Copy          string
	Copied        string
	NothingListed string

	InvalidURL         string
	InvalidStorage     string
	GenericError       string
	GenerationFallback string
	ParseFailed        string
	RenderFailed       string
	Busy               string
	Timeout            string
	Canceled           string

	Priority map[analysis.Priority]string
	Severity map[analysis.Severity]string
	Category map[analysis.Category]string
}

var english = Messages{
	Lang:         "en",
	Title:        "Repo Analyzer",
	Tagline:      "Turn a prototype repository into a product plan, a data model and a go-to-market.",
	RepoLabel:    "GitHub repository",
	RepoHint:     "https://github.com/owner/repository",
	Relational:   "Relational (PostgreSQL)",
	Document:     "Document (Firebase)",
	Submit:       "Analyze",
	Analyzing:    "Analyzing...",
	PendingHint:  "The analysis is running. This page refreshes automatically.",
	EmptyState:   "Enter a repository to start.",
	ErrorHeading: "Something went wrong",

	TabOverview:  "Overview & Features",
	TabPersonas:  "Target Personas",
	TabSales:     "Strategy & Sales",
	TabCritique:  "Mistakes & Improvements",
	TabTechnical: "Technical & Database",

	Summary:       "Summary",
	TechStack:     "Tech stack",
	Features:      "Suggested features",
	Pitch:         "Pitch",
	Channels:      "Channels",
	Monetization:  "Monetization",
	Audience:      "Target audience",
	Strategy:      "Strategy",
	Critiques:     "Common mistakes",
	Improvements:  "Improvements",
	PainPoints:    "Pain points",
	Goals:         "Goals",
	Age:           "Age",
	Explanation:   "Explanation",
	Diagram:       "Diagram",
	SchemaSQL:     "SQL schema",
	SchemaDoc:     "Document structure & rules",
	Copy:          "Copy",
	Copied:        "Copied",
	NothingListed: "Nothing listed.",

	InvalidURL:         "Please enter a valid GitHub repository URL.",
	InvalidStorage:     "Please choose a storage model.",
	GenericError:       "Something went wrong while analyzing the repository.",
	GenerationFallback: "Error analyzing the repository.",
	ParseFailed:        "Failed to process the AI response.",
	RenderFailed:       "The diagram could not be rendered. Its source is shown below.",
	Busy:               "An analysis is already running.",
	Timeout:            "The analysis took too long. Please try again.",
	Canceled:           "The analysis was canceled.",

	Priority: map[analysis.Priority]string{
		analysis.PriorityHigh: "High", analysis.PriorityMedium: "Medium", analysis.PriorityLow: "Low",
	},
	Severity: map[analysis.Severity]string{
		analysis.SeverityCritical: "Critical", analysis.SeverityModerate: "Moderate", analysis.SeverityMinor: "Minor",
	},
	Category: map[analysis.Category]string{
		analysis.CategoryTechnical: "Technical", analysis.CategoryBusiness: "Business", analysis.CategoryUX: "UX",
	},
}

var portuguese = Messages{
	Lang:         "pt-BR",
	Title:        "Repo Analyzer",
	Tagline:      "Transforme um repositório protótipo em plano de produto, modelo de dados e estratégia de vendas.",
	RepoLabel:    "Repositório GitHub",
	RepoHint:     "https://github.com/dono/repositorio",
	Relational:   "Relacional (PostgreSQL)",
	Document:     "Documentos (Firebase)",
	Submit:       "Analisar",
	Analyzing:    "Analisando...",
	PendingHint:  "A análise está em andamento. Esta página atualiza sozinha.",
	EmptyState:   "Informe um repositório para começar.",
	ErrorHeading: "Algo deu errado",

	TabOverview:  "Visão Geral & Features",
	TabPersonas:  "Personas Alvo",
	TabSales:     "Estratégia & Vendas",
	TabCritique:  "Erros & Melhorias",
	TabTechnical: "Técnico & Banco de Dados",

	Summary:       "Resumo",
	TechStack:     "Tecnologias",
	Features:      "Features sugeridas",
	Pitch:         "Pitch",
	Channels:      "Canais",
	Monetization:  "Monetização",
	Audience:      "Público alvo",
	Strategy:      "Estratégia",
	Critiques:     "Erros comuns",
	Improvements:  "Melhorias",
	PainPoints:    "Dores",
	Goals:         "Objetivos",
	Age:           "Idade",
	Explanation:   "Explicação",
	Diagram:       "Diagrama",
	SchemaSQL:     "Esquema SQL",
	SchemaDoc:     "Estrutura & regras",
	Copy:          "Copiar",
	Copied:        "Copiado",
	NothingListed: "Nada listado.",

	InvalidURL:         "Por favor, insira uma URL válida do GitHub.",
	InvalidStorage:     "Por favor, escolha um modelo de armazenamento.",
	GenericError:       "Algo deu errado ao analisar o repositório.",
	GenerationFallback: "Erro ao analisar o repositório.",
	ParseFailed:        "Falha ao processar a resposta da IA.",
	RenderFailed:       "Não foi possível renderizar o diagrama. O código fonte está abaixo.",
	Busy:               "Já existe uma análise em andamento.",
	Timeout:            "A análise demorou demais. Tente novamente.",
	Canceled:           "A análise foi cancelada.",

	Priority: map[analysis.Priority]string{
		analysis.PriorityHigh: "Alta", analysis.PriorityMedium: "Média", analysis.PriorityLow: "Baixa",
	},
	Severity: map[analysis.Severity]string{
		analysis.SeverityCritical: "Crítico", analysis.SeverityModerate: "Moderado", analysis.SeverityMinor: "Leve",
	},
	Category: map[analysis.Category]string{
		analysis.CategoryTechnical: "Técnico", analysis.CategoryBusiness: "Negócio", analysis.CategoryUX: "UX",
	},
}

// Locale returns the messages for tag, falling back to English.
func Locale(tag string) Messages {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "pt", "pt-br", "pt_br":
		return portuguese
	}
	return english
}

// ErrorText maps an analysis failure to the message shown to the user.
// Raw payloads and internal details never reach the page.
func (m Messages) ErrorText(err error) string {
	var (
		ive *analysis.InputValidationError
		ce  *analysis.ConfigurationError
		ge  *analysis.GenerationError
		pe  *analysis.ParseError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &ive):
		if ive.Field == "storageModel" {
			return m.InvalidStorage
		}
		return m.InvalidURL
	case errors.Is(err, session.ErrBusy):
		return m.Busy
	case errors.As(err, &pe):
		return m.ParseFailed
	case errors.As(err, &ce):
		return m.GenericError
	case errors.As(err, &ge):
		switch {
		case strings.TrimSpace(ge.Message) != "":
			return ge.Message
		case errors.Is(ge.Err, context.DeadlineExceeded):
			return m.Timeout
		case errors.Is(ge.Err, context.Canceled):
			return m.Canceled
		}
		return m.GenerationFallback
	}
	return m.GenericError
}
