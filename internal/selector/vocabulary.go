package selector

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Vocabulary holds the static data driving table selection: the keyword to
// table mapping (each surface form is a distinct key; accented and
// unaccented Vietnamese forms are listed separately and the question text
// is never normalized), the join-neighborhood adjacency between tables, the
// table priorities, and the bridge-table lookup.
type Vocabulary struct {
	Keywords      map[string][]string `yaml:"keywords"`
	Relationships map[string][]string `yaml:"relationships"`
	Priorities    map[string]int      `yaml:"priorities"`
	Bridges       []Bridge            `yaml:"bridges"`
}

// Bridge declares the junction table joining an otherwise-unconnected pair
// of tables
type Bridge struct {
	Between []string `yaml:"between"`
	Table   string   `yaml:"table"`
}

// LoadVocabularyFile reads a vocabulary overlay from a YAML file
func LoadVocabularyFile(path string) (*Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read vocabulary file: %w", err)
	}

	var vocab Vocabulary
	if err := yaml.Unmarshal(data, &vocab); err != nil {
		return nil, fmt.Errorf("failed to parse vocabulary file: %w", err)
	}

	return &vocab, nil
}

// Merge overlays another vocabulary onto this one: keyword table sets and
// relationships are unioned, priorities are overwritten, bridges appended
func (v *Vocabulary) Merge(overlay *Vocabulary) {
	for keyword, tables := range overlay.Keywords {
		v.Keywords[keyword] = unionStrings(v.Keywords[keyword], tables)
	}

	for table, related := range overlay.Relationships {
		v.Relationships[table] = unionStrings(v.Relationships[table], related)
	}

	for table, priority := range overlay.Priorities {
		v.Priorities[table] = priority
	}

	v.Bridges = append(v.Bridges, overlay.Bridges...)
}

func unionStrings(existing, extra []string) []string {
	seen := make(map[string]bool, len(existing))
	for _, s := range existing {
		seen[s] = true
	}

	for _, s := range extra {
		if !seen[s] {
			seen[s] = true

			existing = append(existing, s)
		}
	}

	return existing
}

// DefaultVocabulary returns the built-in rental-domain vocabulary covering
// English plus accented and unaccented Vietnamese surface forms
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		Keywords: map[string][]string{
			// film
			"film":        {"film", "film_category", "film_actor"},
			"movie":       {"film", "film_category", "film_actor"},
			"title":       {"film"},
			"description": {"film"},
			"length":      {"film"},
			"duration":    {"film"},
			"release":     {"film"},
			"rating":      {"film"},

			"phim":          {"film", "film_category", "film_actor"},
			"bộ phim":       {"film", "film_category", "film_actor"},
			"tiêu đề":       {"film"},
			"tên phim":      {"film"},
			"mô tả":         {"film"},
			"nội dung":      {"film"},
			"thời lượng":    {"film"},
			"độ dài":        {"film"},
			"năm phát hành": {"film"},
			"năm sản xuất":  {"film"},
			"đánh giá":      {"film"},

			"bo phim":       {"film", "film_category", "film_actor"},
			"tieu de":       {"film"},
			"ten phim":      {"film"},
			"mo ta":         {"film"},
			"noi dung":      {"film"},
			"thoi luong":    {"film"},
			"do dai":        {"film"},
			"nam phat hanh": {"film"},
			"nam san xuat":  {"film"},
			"danh gia":      {"film"},

			// actor
			"actor":     {"actor", "film_actor"},
			"actress":   {"actor", "film_actor"},
			"cast":      {"actor", "film_actor"},
			"performer": {"actor", "film_actor"},

			"diễn viên": {"actor", "film_actor"},
			"nghệ sĩ":   {"actor", "film_actor"},
			"đóng phim": {"actor", "film_actor", "film"},
			"vai diễn":  {"actor", "film_actor"},
			"tham gia":  {"actor", "film_actor"},
			"xuất hiện": {"actor", "film_actor"},

			"dien vien": {"actor", "film_actor"},
			"nghe si":   {"actor", "film_actor"},
			"dong phim": {"actor", "film_actor", "film"},
			"vai dien":  {"actor", "film_actor"},
			"xuat hien": {"actor", "film_actor"},

			// category
			"category": {"category", "film_category"},
			"genre":    {"category", "film_category"},
			"type":     {"category", "film_category"},

			"thể loại":  {"category", "film_category"},
			"loại phim": {"category", "film_category"},
			"danh mục":  {"category", "film_category"},
			"hành động": {"category", "film_category"},
			"kinh dị":   {"category", "film_category"},
			"hài":       {"category", "film_category"},
			"tình cảm":  {"category", "film_category"},
			"hoạt hình": {"category", "film_category"},

			"the loai":  {"category", "film_category"},
			"loai phim": {"category", "film_category"},
			"danh muc":  {"category", "film_category"},
			"hanh dong": {"category", "film_category"},
			"kinh di":   {"category", "film_category"},
			"tinh cam":  {"category", "film_category"},
			"hoat hinh": {"category", "film_category"},

			// customer
			"customer": {"customer", "rental", "payment"},
			"client":   {"customer", "rental", "payment"},
			"member":   {"customer"},
			"user":     {"customer"},

			"khách hàng": {"customer", "rental", "payment"},
			"khách":      {"customer", "rental"},
			"người thuê": {"customer", "rental"},
			"người dùng": {"customer"},
			"thành viên": {"customer"},
			"người mua":  {"customer", "payment"},
			"người mượn": {"customer", "rental"},

			"khach hang": {"customer", "rental", "payment"},
			"khach":      {"customer", "rental"},
			"nguoi thue": {"customer", "rental"},
			"nguoi dung": {"customer"},
			"thanh vien": {"customer"},
			"nguoi mua":  {"customer", "payment"},
			"nguoi muon": {"customer", "rental"},

			// rental
			"rental": {"rental", "inventory"},
			"rent":   {"rental", "inventory"},
			"borrow": {"rental"},
			"loan":   {"rental"},

			"thuê":          {"rental", "inventory"},
			"cho thuê":      {"rental", "inventory"},
			"mượn":          {"rental"},
			"giao dịch thuê": {"rental"},
			"lượt thuê":     {"rental"},
			"đơn thuê":      {"rental"},
			"trả":           {"rental"},
			"trả phim":      {"rental"},

			"thue":           {"rental", "inventory"},
			"cho thue":       {"rental", "inventory"},
			"muon":           {"rental"},
			"giao dich thue": {"rental"},
			"luot thue":      {"rental"},
			"don thue":       {"rental"},
			"tra":            {"rental"},
			"tra phim":       {"rental"},

			// payment
			"payment": {"payment"},
			"pay":     {"payment"},
			"revenue": {"payment", "rental"},
			"income":  {"payment"},
			"money":   {"payment"},
			"amount":  {"payment"},
			"sales":   {"payment", "rental"},

			"thanh toán": {"payment"},
			"trả tiền":   {"payment"},
			"tiền":       {"payment"},
			"doanh thu":  {"payment", "rental"},
			"thu nhập":   {"payment"},
			"số tiền":    {"payment"},
			"tổng tiền":  {"payment"},
			"chi phí":    {"payment"},
			"phí":        {"payment"},
			"hóa đơn":    {"payment"},
			"bán hàng":   {"payment", "rental"},

			"thanh toan": {"payment"},
			"tra tien":   {"payment"},
			"tien":       {"payment"},
			"thu nhap":   {"payment"},
			"so tien":    {"payment"},
			"tong tien":  {"payment"},
			"chi phi":    {"payment"},
			"phi":        {"payment"},
			"hoa don":    {"payment"},
			"ban hang":   {"payment", "rental"},

			// store
			"store":    {"store", "staff", "inventory"},
			"shop":     {"store", "staff", "inventory"},
			"branch":   {"store"},
			"location": {"store", "address"},

			"cửa hàng":  {"store", "staff", "inventory"},
			"chi nhánh": {"store"},
			"địa điểm":  {"store", "address"},
			"điểm bán":  {"store"},
			"cơ sở":     {"store"},

			"cua hang":  {"store", "staff", "inventory"},
			"chi nhanh": {"store"},
			"dia diem":  {"store", "address"},
			"diem ban":  {"store"},
			"co so":     {"store"},

			// staff
			"staff":    {"staff"},
			"employee": {"staff"},
			"worker":   {"staff"},
			"manager":  {"staff", "store"},

			"nhân viên": {"staff"},
			"người làm": {"staff"},
			"quản lý":   {"staff", "store"},
			"nhân sự":   {"staff"},

			"nhan vien": {"staff"},
			"nguoi lam": {"staff"},
			"quan ly":   {"staff", "store"},
			"nhan su":   {"staff"},

			// inventory
			"inventory": {"inventory", "store"},
			"stock":     {"inventory"},
			"available": {"inventory"},
			"copy":      {"inventory"},

			"kho":      {"inventory", "store"},
			"tồn kho":  {"inventory"},
			"hàng tồn": {"inventory"},
			"số lượng": {"inventory"},
			"bản sao":  {"inventory"},
			"còn hàng": {"inventory"},
			"có sẵn":   {"inventory"},

			"ton kho":  {"inventory"},
			"hang ton": {"inventory"},
			"so luong": {"inventory"},
			"ban sao":  {"inventory"},
			"con hang": {"inventory"},
			"co san":   {"inventory"},

			// address, city, country
			"address":  {"address", "city", "country"},
			"city":     {"city", "address"},
			"country":  {"country", "city"},
			"district": {"address"},
			"postal":   {"address"},
			"phone":    {"address", "customer"},

			"địa chỉ":        {"address", "city", "country"},
			"thành phố":      {"city", "address"},
			"quốc gia":       {"country", "city"},
			"nước":           {"country"},
			"quận":           {"address"},
			"huyện":          {"address"},
			"phường":         {"address"},
			"đường":          {"address"},
			"số điện thoại":  {"address", "customer"},
			"liên hệ":        {"address", "customer"},

			"dia chi":        {"address", "city", "country"},
			"thanh pho":      {"city", "address"},
			"quoc gia":       {"country", "city"},
			"nuoc":           {"country"},
			"quan":           {"address"},
			"huyen":          {"address"},
			"phuong":         {"address"},
			"duong":          {"address"},
			"so dien thoai":  {"address", "customer"},
			"lien he":        {"address", "customer"},

			// language
			"language": {"language", "film"},

			"ngôn ngữ":   {"language", "film"},
			"tiếng":      {"language", "film"},
			"phụ đề":     {"language", "film"},
			"lồng tiếng": {"language", "film"},

			"ngon ngu":   {"language", "film"},
			"tieng":      {"language", "film"},
			"phu de":     {"language", "film"},
			"long tieng": {"language", "film"},

			// time words, shared across fact tables
			"ngày":    {"rental", "payment"},
			"tháng":   {"rental", "payment"},
			"năm":     {"rental", "payment", "film"},
			"tuần":    {"rental", "payment"},
			"hôm nay": {"rental", "payment"},
			"hôm qua": {"rental", "payment"},
			"gần đây": {"rental", "payment"},

			"ngay":    {"rental", "payment"},
			"thang":   {"rental", "payment"},
			"nam":     {"rental", "payment", "film"},
			"tuan":    {"rental", "payment"},
			"hom nay": {"rental", "payment"},
			"hom qua": {"rental", "payment"},
			"gan day": {"rental", "payment"},

			// aggregation words, shared
			"thống kê":   {"film", "rental", "payment", "customer"},
			"báo cáo":    {"film", "rental", "payment", "customer"},
			"tổng":       {"payment", "rental"},
			"trung bình": {"payment", "rental", "film"},
			"cao nhất":   {"payment", "rental", "film"},
			"thấp nhất":  {"payment", "rental", "film"},
			"nhiều nhất": {"film", "actor", "customer", "rental"},
			"ít nhất":    {"film", "actor", "customer", "rental"},
			"top":        {"film", "actor", "customer", "rental", "payment"},
			"xếp hạng":   {"film", "actor", "customer"},

			"thong ke":   {"film", "rental", "payment", "customer"},
			"bao cao":    {"film", "rental", "payment", "customer"},
			"tong":       {"payment", "rental"},
			"trung binh": {"payment", "rental", "film"},
			"cao nhat":   {"payment", "rental", "film"},
			"thap nhat":  {"payment", "rental", "film"},
			"nhieu nhat": {"film", "actor", "customer", "rental"},
			"it nhat":    {"film", "actor", "customer", "rental"},
			"xep hang":   {"film", "actor", "customer"},
		},
		Relationships: map[string][]string{
			"film":          {"language", "film_category", "film_actor", "inventory"},
			"actor":         {"film_actor"},
			"category":      {"film_category"},
			"customer":      {"address", "rental", "payment"},
			"rental":        {"inventory", "customer", "staff", "payment"},
			"payment":       {"rental", "customer", "staff"},
			"store":         {"address", "staff", "inventory"},
			"staff":         {"address", "store"},
			"inventory":     {"film", "store"},
			"address":       {"city"},
			"city":          {"country"},
			"film_actor":    {"film", "actor"},
			"film_category": {"film", "category"},
		},
		Priorities: map[string]int{
			"film":          10,
			"actor":         9,
			"customer":      9,
			"rental":        8,
			"payment":       8,
			"category":      7,
			"store":         7,
			"staff":         6,
			"inventory":     5,
			"address":       4,
			"city":          3,
			"country":       2,
			"language":      2,
			"film_actor":    1,
			"film_category": 1,
		},
		Bridges: []Bridge{
			{Between: []string{"film", "actor"}, Table: "film_actor"},
			{Between: []string{"film", "category"}, Table: "film_category"},
			{Between: []string{"city", "customer"}, Table: "address"},
			{Between: []string{"country", "customer"}, Table: "city"},
		},
	}
}
