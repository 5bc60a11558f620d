package dispatcher

type Status string

const (
	StatusNoArticles Status = "Nenhum artigo encontrado"
	StatusNothingNew Status = "Sem novidades"
	StatusProcessed  Status = "Processado com sucesso"
	StatusError      Status = "Erro"
)

// Outcome is the JSON result of a run.
type Outcome struct {
	Status  Status `json:"status"`
	Details string `json:"detalhes,omitempty"`
}

func (o Outcome) Failed() bool {
	return o.Status == StatusError
}

func failure(err error) Outcome {
	return Outcome{Status: StatusError, Details: err.Error()}
}
