package providers

import (
	"github.com/samber/do/v2"

	"github.com/librisapp/libris-server/internal/config"
	"github.com/librisapp/libris-server/internal/logger"
	"github.com/librisapp/libris-server/internal/storage"
)

// ProvideDocumentStorage provides local storage for uploaded book texts.
func ProvideDocumentStorage(i do.Injector) (*storage.Local, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	files, err := storage.NewLocal(cfg.Data.BasePath)
	if err != nil {
		return nil, err
	}

	log.Info("Document storage initialized", "path", cfg.Data.UploadPath)

	return files, nil
}
