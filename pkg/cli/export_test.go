package cli

var (
	RenderErrorForTest = renderError
	MaskSecretForTest  = maskSecret
)
