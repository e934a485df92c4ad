package domain

const (
	MailTypeCreateUser         = "create_user"
	MailTypeGenerationFinished = "generation_finished"
)

type MailMessage struct {
	Type string `json:"type"`
	To   string `json:"to"`
	Data any    `json:"data"`
}

type CreateUserMailData struct {
	FullName string `json:"fullName"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type GenerationFinishedMailData struct {
	FullName        string           `json:"fullName"`
	GenerationID    int64            `json:"generationID"`
	ResourceSetName string           `json:"resourceSetName"`
	Status          GenerationStatus `json:"status"`
	Generations     int              `json:"generations"`
	BestFitness     float64          `json:"bestFitness"`
	OptimumReached  bool             `json:"optimumReached"`
	ErrorMessage    string           `json:"errorMessage"`
}
