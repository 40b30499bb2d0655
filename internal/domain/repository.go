package domain

// GreekGodRepository описывает требования к хранилищу коллекции.
// Все операции атомарны относительно друг друга.
type GreekGodRepository interface {
	// List возвращает все записи в порядке вставки.
	List() ([]GreekGod, error)
	// Get возвращает запись по идентификатору или NotFoundError.
	Get(id int64) (GreekGod, error)
	// Create проверяет payload, назначает следующий ID и добавляет запись в конец коллекции.
	Create(payload Payload) (GreekGod, error)
	// Replace полностью заменяет запись, сохраняя её ID и позицию.
	Replace(id int64, payload Payload) (GreekGod, error)
	// PartialUpdate перезаписывает только переданные поля.
	PartialUpdate(id int64, payload Payload) (GreekGod, error)
	// Delete удаляет запись и возвращает её значение.
	Delete(id int64) (GreekGod, error)
	// Count возвращает текущий размер коллекции.
	Count() (int, error)
}
