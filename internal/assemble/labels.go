package assemble

import (
	"strings"

	"github.com/kdocs/docuflow/internal/doctype"
)

type registryLabelSet struct {
	SerialNumber   string
	DateOfIssue    string
	RegistryOffice string
	NothingFollows string
	Notes          []string
}

// registryLabels is indexed by doctype.Language; English is the fallback entry.
var registryLabels = [doctype.LanguageCount]registryLabelSet{
	doctype.English: {
		SerialNumber:   "Serial Number",
		DateOfIssue:    "Date Of Issue",
		RegistryOffice: "Competent Registry Office",
		NothingFollows: "Nothing follows",
		Notes: []string{
			"[ Notes ]\n" +
				"A. Shows the owners or co-owners holding valid shares in the registry record.\n" +
				"B. The final share is the final share held by the registered holder; where shares are held under two or more rank numbers, they have been added together.\n" +
				"C. The rank number is the registration rank number assigned per registered holder.\n" +
				"D. Ownership entries (Section A) and rights other than ownership (Section B) unrelated to the application are not shown.\n" +
				"E. Where shares were divided and registered, the data has been consolidated across all shares.",
			"* Portions struck through with a solid line indicate cancelled entries.    * Sections A and B without entries are marked 'No entries'.",
		},
	},
	doctype.Japanese: {
		SerialNumber:   "固有番号",
		DateOfIssue:    "交付日",
		RegistryOffice: "管轄登記所",
		NothingFollows: "以下余白",
		Notes: []string{
			"[ 参考事項 ]\n" +
				"ア. 登記記録において有効な持分を有する所有者または共有者の現況を表示します。\n" +
				"イ. 最終持分は登記名義人が有する最終の持分であり、2つ以上の順位番号の持分を有する場合はその持分を合算しています。\n" +
				"ウ. 順位番号は登記名義人を基準として付与された登記の順位番号です。\n" +
				"エ. 申請事項と関係のない所有権（甲区）及び所有権以外の権利（乙区）は表示していません。\n" +
				"オ. 持分が分割して登記された資料は、全体の持分を総合して整理したものです。",
			"* 実線が引かれた部分は抹消事項であることを示す。    * 記録事項のない甲区、乙区は「記録事項なし」と表示する。",
		},
	},
	doctype.Chinese: {
		SerialNumber:   "固有番号",
		DateOfIssue:    "发证日期",
		RegistryOffice: "管辖登记机关",
		NothingFollows: "以下为空白",
		Notes: []string{
			"[ 参考事项 ]\n" +
				"一、显示登记记录中持有有效份额的所有人或共有人的现状。\n" +
				"二、最终份额是登记名义人持有的最终份额，持有两个以上顺位编号份额的，已将其份额合并计算。\n" +
				"三、顺位编号是以登记名义人为准赋予的登记顺位编号。\n" +
				"四、与申请事项无关的所有权（甲区）及所有权以外的权利（乙区）未予显示。\n" +
				"五、份额分割登记的资料系综合全部份额整理而成。",
			"* 划实线的部分表示已注销事项。    * 无记载事项的甲区、乙区标注为“无记载事项”。",
		},
	},
	doctype.Vietnamese: {
		SerialNumber:   "Số định danh",
		DateOfIssue:    "Ngày cấp",
		RegistryOffice: "Cơ quan đăng ký có thẩm quyền",
		NothingFollows: "Phần còn lại của trang này để trống",
		Notes: []string{
			"[ Ghi chú ]\n" +
				"a. Thể hiện tình trạng chủ sở hữu hoặc đồng sở hữu có phần sở hữu hợp lệ trong hồ sơ đăng ký.\n" +
				"b. Phần sở hữu cuối cùng là phần sở hữu cuối cùng của người đứng tên đăng ký; trường hợp có phần sở hữu theo từ hai số thứ tự trở lên thì đã được cộng gộp.\n" +
				"c. Số thứ tự là số thứ tự đăng ký được cấp theo người đứng tên đăng ký.\n" +
				"d. Quyền sở hữu (Phần Gap) và các quyền khác ngoài quyền sở hữu (Phần Eul) không liên quan đến nội dung yêu cầu không được hiển thị.\n" +
				"e. Dữ liệu về phần sở hữu được chia tách và đăng ký đã được tổng hợp theo toàn bộ phần sở hữu.",
			"* Phần được gạch bằng đường liền thể hiện nội dung đã bị xóa.    * Phần Gap, Phần Eul không có nội dung ghi chép được ghi là 'Không có nội dung ghi chép'.",
		},
	},
}

type familyLabelSet struct {
	Domicile          string
	FamilyDetails     string
	TimeOfIssue       string
	Applicant         string
	CertificateNumber string
}

var familyLabels = [doctype.LanguageCount]familyLabelSet{
	doctype.English: {
		Domicile:          "Registered Domicile",
		FamilyDetails:     "Family Details",
		TimeOfIssue:       "Time of Issue",
		Applicant:         "Applicant",
		CertificateNumber: "Certificate Number",
	},
	doctype.Japanese: {
		Domicile:          "本籍地",
		FamilyDetails:     "家族事項",
		TimeOfIssue:       "発行日",
		Applicant:         "申請者",
		CertificateNumber: "証明書番号",
	},
	doctype.Chinese: {
		Domicile:          "户籍所在地",
		FamilyDetails:     "家庭情况",
		TimeOfIssue:       "签发日期",
		Applicant:         "申请人",
		CertificateNumber: "证书编号",
	},
	doctype.Vietnamese: {
		Domicile:          "Nơi đăng ký hộ tịch",
		FamilyDetails:     "Thông tin gia đình",
		TimeOfIssue:       "Ngày cấp",
		Applicant:         "Người nộp đơn",
		CertificateNumber: "Số giấy chứng nhận",
	},
}

// defaultFamilyColumns fills a short or missing column list.
var defaultFamilyColumns = []string{"Category", "Full Name", "Date of Birth", "Reg. No.", "Sex", "Origin"}

type enrollmentLabelSet struct {
	Title  string
	Fields [len(enrollmentFields)]string
	Footer string
}

// enrollmentFields are the placeholder keys of the built-in template, in layout order.
var enrollmentFields = [...]string{
	"certificateNumber",
	"name",
	"dateOfBirth",
	"studentNumber",
	"university",
	"college",
	"department",
	"grade",
	"enrollmentStatus",
	"admissionDate",
	"purpose",
}

var enrollmentLabels = [doctype.LanguageCount]enrollmentLabelSet{
	doctype.English: {
		Title: "Certificate of Enrollment",
		Fields: [len(enrollmentFields)]string{
			"Certificate No.", "Name", "Date of Birth", "Student ID", "University", "College",
			"Department", "Year", "Enrollment Status", "Date of Admission", "Purpose",
		},
		Footer: "This is to certify that the above-named student is currently enrolled at this university.",
	},
	doctype.Japanese: {
		Title: "在学証明書",
		Fields: [len(enrollmentFields)]string{
			"証明書番号", "氏名", "生年月日", "学籍番号", "大学", "学部",
			"学科", "学年", "在籍状況", "入学年月日", "用途",
		},
		Footer: "上記の者は本学に在学していることを証明します。",
	},
	doctype.Chinese: {
		Title: "在学证明书",
		Fields: [len(enrollmentFields)]string{
			"证书编号", "姓名", "出生日期", "学号", "大学", "学院",
			"专业", "年级", "学籍状态", "入学日期", "用途",
		},
		Footer: "兹证明上述学生目前在本校就读。",
	},
	doctype.Vietnamese: {
		Title: "Giấy chứng nhận sinh viên đang theo học",
		Fields: [len(enrollmentFields)]string{
			"Số chứng nhận", "Họ và tên", "Ngày sinh", "Mã số sinh viên", "Trường đại học", "Khoa",
			"Ngành", "Năm học", "Tình trạng học tập", "Ngày nhập học", "Mục đích",
		},
		Footer: "Xác nhận sinh viên có tên trên hiện đang theo học tại trường.",
	},
}

type relation int

const (
	relationOther relation = iota
	relationParent
	relationSpouse
	relationChild
)

// relationSynonyms lists the category labels per relation. Korean labels
// cover documents rendered without translation.
var relationSynonyms = map[relation][]string{
	relationParent: {"Father", "Mother", "Parent", "父", "母", "父亲", "母亲", "Cha", "Mẹ", "부", "모", "부친", "모친"},
	relationSpouse: {"Spouse", "配偶者", "配偶", "Người phối ngẫu", "Vợ", "Chồng", "배우자", "처", "남편"},
	relationChild:  {"Children", "Child", "Son", "Daughter", "子女", "子", "娘", "息子", "儿子", "女儿", "Con", "자녀", "자", "아들", "딸"},
}

var relationByLabel = func() map[string]relation {
	m := make(map[string]relation)
	for rel, labels := range relationSynonyms {
		for _, l := range labels {
			m[strings.ToLower(l)] = rel
		}
	}
	return m
}()

func relationOf(category string) relation {
	return relationByLabel[strings.ToLower(strings.TrimSpace(category))]
}
